package main

import (
	"flag"
	"io"

	"brane-view/internal/config"
	"brane-view/internal/logger"
)

// rootArgs 是出现在子命令之前的全局参数。
type rootArgs struct {
	overrides []string
	cfgPath   string
	plain     bool
	logPath   string
	logLevel  string
}

func parseRootArgs(args []string) (rootArgs, []string, error) {
	fs := flag.NewFlagSet("brane-view", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var root rootArgs
	var overrides stringSlice
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	fs.StringVar(&root.cfgPath, "config", "", "Path to config file (default ~/.brane/config.toml)")
	fs.BoolVar(&root.plain, "plain", false, "Write plain text blocks instead of the interactive viewer")
	fs.StringVar(&root.logPath, "log", logger.DefaultLogPath, "Log file path")
	fs.StringVar(&root.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return rootArgs{}, nil, err
	}
	root.overrides = append([]string{}, overrides...)
	return root, fs.Args(), nil
}

// loadConfig 读取配置文件并应用 -c 覆盖。
func loadConfig(root rootArgs) (config.Config, error) {
	cfg, err := config.Load(root.cfgPath)
	if err != nil {
		return cfg, err
	}
	return config.ApplyKVOverrides(cfg, root.overrides), nil
}
