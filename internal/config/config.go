package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"brane-view/internal/i18n"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// 环境变量名。
const (
	EnvAPIURL   = "BRANE_API_URL"
	EnvLanguage = "BRANE_LANGUAGE"
	EnvTimezone = "BRANE_TIMEZONE"
)

// ErrNoHome 表示未指定路径且无法确定 $HOME。
var ErrNoHome = errors.New("config path is empty and $HOME is not set")

// Config is the only persisted config file schema.
type Config struct {
	APIURL         string `toml:"api_url"`
	Language       string `toml:"language"`
	Timezone       string `toml:"timezone"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	Journal        string `toml:"journal"`
	Source         string `toml:"-"`
}

func Default() Config {
	return Config{
		APIURL:         "http://127.0.0.1:8080",
		Language:       string(i18n.DefaultLanguage),
		Timezone:       "Local",
		PollIntervalMS: 1000,
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".brane", "config.toml")
}

// Load 依次合并默认值、配置文件、.env 与环境变量。配置文件不存在不视为错误。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, ErrNoHome
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := toml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// .env 只补充未设置的变量，缺失时忽略。
	_ = godotenv.Load()
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if env := strings.TrimSpace(os.Getenv(EnvAPIURL)); env != "" {
		cfg.APIURL = env
	}
	if env := strings.TrimSpace(os.Getenv(EnvLanguage)); env != "" {
		cfg.Language = env
	}
	if env := strings.TrimSpace(os.Getenv(EnvTimezone)); env != "" {
		cfg.Timezone = env
	}
}

// PollInterval 返回轮询间隔，非正数时回退到 1s。
func (c Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Location 解析展示时区；空值或 "Local" 使用本地时区。
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local, fmt.Errorf("timezone %q: %w", name, err)
	}
	return loc, nil
}

// JournalPath 展开 journal 路径中的 ~。
func (c Config) JournalPath() string {
	p := strings.TrimSpace(c.Journal)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Lang 返回规范化后的语言。
func (c Config) Lang() i18n.Language {
	return i18n.Normalize(c.Language)
}
