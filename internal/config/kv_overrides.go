package config

import (
	"fmt"
	"strconv"
	"strings"
)

// UnknownKeyError 表示 -c 或 config set 使用了不存在的键。
type UnknownKeyError struct {
	Key string
}

func (e UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown config key %q", e.Key)
}

// ApplyKVOverrides applies free-form -c key=value overrides.
// 格式错误或未知的键会被忽略，与命令行的宽松行为一致。
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	for _, raw := range overrides {
		key, val, ok := splitKV(raw)
		if !ok {
			continue
		}
		_ = cfg.Set(key, val)
	}
	return cfg
}

// Set 按键名设置单个配置值。
func (c *Config) Set(key, val string) error {
	switch key {
	case "api_url", "url":
		c.APIURL = val
	case "language", "lang":
		c.Language = val
	case "timezone", "tz":
		c.Timezone = val
	case "journal":
		c.Journal = val
	case "poll_interval_ms":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("poll_interval_ms: %w", err)
		}
		c.PollIntervalMS = n
	default:
		return UnknownKeyError{Key: key}
	}
	return nil
}

func splitKV(raw string) (string, string, bool) {
	parts := strings.SplitN(raw, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(parts[1]), true
}

// ParseKV 解析单个 key=value，供 config set 使用。
func ParseKV(raw string) (string, string, error) {
	key, val, ok := splitKV(raw)
	if !ok {
		return "", "", fmt.Errorf("expected key=value, got %q", raw)
	}
	return key, val, nil
}
