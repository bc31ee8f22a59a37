package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"brane-view/internal/events"
	"brane-view/internal/source"

	"github.com/google/uuid"
)

func runWatch(ctx context.Context, root rootArgs, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var intervalMS int
	fs.IntVar(&intervalMS, "interval", 0, "Poll interval in milliseconds (default from config)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: watch takes exactly one invocation id", errUsage)
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid invocation id %q: %w", fs.Arg(0), err)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client, err := source.NewClient(cfg.APIURL, nil)
	if err != nil {
		return err
	}
	interval := cfg.PollInterval()
	if intervalMS > 0 {
		interval = time.Duration(intervalMS) * time.Millisecond
	}
	poller := &source.Poller{Client: client, ID: id.String(), Interval: interval}
	log.WithField("display", id.String()).Infof("watching %s every %s", cfg.APIURL, interval)

	p := newPipeline(cfg)
	src := func(ctx context.Context, out *events.UpdateQueue) error {
		poller.Out = out
		return poller.Run(ctx)
	}
	return p.run(ctx, src, viewOptions{
		title:            id.String(),
		plain:            !useTUI(root, stdout),
		stopWhenTerminal: true,
	}, stdout)
}

func runReplay(ctx context.Context, root rootArgs, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var file string
	var interval time.Duration
	fs.StringVar(&file, "file", "", "Fragment or journal file (default stdin)")
	fs.DurationVar(&interval, "interval", 0, "Delay between fragments, e.g. 200ms")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	reader, name := stdin, "stdin"
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		reader, name = f, file
	}
	// 回放时不再写入 journal，避免回放文件自我追加。
	cfg.Journal = ""

	p := newPipeline(cfg)
	src := func(ctx context.Context, out *events.UpdateQueue) error {
		stream := &source.Stream{Reader: reader, Out: out, Name: name, Pace: interval}
		return stream.Run(ctx)
	}
	// stdin 被数据占用时无法接收按键，只能使用纯文本输出。
	plainOut := !useTUI(root, stdout) || file == ""
	return p.run(ctx, src, viewOptions{title: name, plain: plainOut}, stdout)
}
