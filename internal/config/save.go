package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Save 将配置写回 TOML 文件，目录不存在时自动创建。
func Save(path string, cfg Config) error {
	if path == "" {
		path = cfg.Source
	}
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return ErrNoHome
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// SetAndSave 读取配置文件（不合并环境变量），设置一个键后写回。
func SetAndSave(path, key, val string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if content, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(content, &cfg); err != nil {
			return cfg, err
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}
	if err := cfg.Set(key, val); err != nil {
		return cfg, err
	}
	cfg.Source = path
	return cfg, Save(path, cfg)
}
