package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"brane-view/internal/config"
	"brane-view/internal/invocation"
	"brane-view/internal/source"
	"brane-view/internal/value"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// maxInput 限制从 stdin 读取的单个文档大小。
const maxInput = 8 << 20

func readInput(stdin io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(stdin, maxInput))
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("stdin is empty")
	}
	return data, nil
}

// runDecode 读取一个带标签的值并输出其展示字符串。
func runDecode(stdin io.Reader, stdout io.Writer) error {
	data, err := readInput(stdin)
	if err != nil {
		return err
	}
	var v value.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	_, err = fmt.Fprintln(stdout, value.Decode(v))
	return err
}

// runProject 输出片段（或 --id 指定的调用）的展示模型 JSON。
func runProject(ctx context.Context, root rootArgs, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("project", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var id string
	fs.StringVar(&id, "id", "", "Fetch the invocation from brane-api instead of reading stdin")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var frag invocation.Fragment
	if id != "" {
		client, err := source.NewClient(cfg.APIURL, nil)
		if err != nil {
			return err
		}
		if frag, err = source.Snapshot(ctx, client, id); err != nil {
			return err
		}
	} else {
		data, err := readInput(stdin)
		if err != nil {
			return err
		}
		if frag, err = invocation.ParseFragment(data); err != nil {
			return err
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Warnf("timezone %q: %v, using local time", cfg.Timezone, err)
	}
	model := invocation.NewProjector(loc, cfg.Lang()).Project(frag.Record)
	for _, issue := range model.Issues {
		log.WithField("display", frag.DisplayID).Warnf("projection: %v", issue)
	}
	out, err := json.Marshal(model)
	if err != nil {
		return err
	}
	if out, err = sjson.SetBytes(out, "displayId", frag.DisplayID); err != nil {
		return err
	}
	_, err = stdout.Write(pretty.Pretty(out))
	return err
}

// runCheck 检查 API 主机的 TCP 可达性与 /health。
func runCheck(ctx context.Context, root rootArgs, stdout io.Writer) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := source.CheckReachable(ctx, cfg.APIURL); err != nil {
		return err
	}
	client, err := source.NewClient(cfg.APIURL, nil)
	if err != nil {
		return err
	}
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	_, err = fmt.Fprintf(stdout, "ok: %s\n", cfg.APIURL)
	return err
}

func runConfig(root rootArgs, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: config needs a subcommand (set, show)", errUsage)
	}
	switch args[0] {
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("%w: config set key=value", errUsage)
		}
		key, val, err := config.ParseKV(args[1])
		if err != nil {
			return err
		}
		cfg, err := config.SetAndSave(root.cfgPath, key, val)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "set %s in %s\n", key, cfg.Source)
		return err
	case "show":
		cfg, err := loadConfig(root)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		data, err := toml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}
	return fmt.Errorf("%w: unknown config subcommand %q", errUsage, args[0])
}
