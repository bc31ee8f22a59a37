package main

import (
	"context"
	"errors"
	"io"
	"os"

	"brane-view/internal/config"
	"brane-view/internal/events"
	"brane-view/internal/invocation"
	"brane-view/internal/journal"
	"brane-view/internal/plain"
	"brane-view/internal/render"
	"brane-view/internal/tui"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

const queueBuffer = 64

// sourceFunc 向队列投递更新，返回时队列即被关闭。
type sourceFunc func(ctx context.Context, out *events.UpdateQueue) error

// viewOptions 描述一次查看所用的输出面。
type viewOptions struct {
	title string
	plain bool
	// stopWhenTerminal 让纯文本模式在所有显示都进入终态后结束。
	stopWhenTerminal bool
}

// pipeline 串起 数据源 → 更新队列 → 分发器(journal, registry) → 输出面。
type pipeline struct {
	cfg      config.Config
	queue    *events.UpdateQueue
	dispatch *events.Dispatcher
	closers  []io.Closer
}

func newPipeline(cfg config.Config) *pipeline {
	queue := events.NewUpdateQueue(queueBuffer)
	p := &pipeline{cfg: cfg, queue: queue}
	entry, closer := events.NewQueueLogger("updates", events.DefaultUpdateLogPath)
	queue.SetLogger(entry)
	if closer != nil {
		p.closers = append(p.closers, closer)
	}
	p.dispatch = events.NewDispatcher(queue)
	if path := cfg.JournalPath(); path != "" {
		p.dispatch.Use(journal.New(path))
	}
	return p
}

func (p *pipeline) close() {
	for _, c := range p.closers {
		_ = c.Close()
	}
}

func (p *pipeline) projector() invocation.Projector {
	loc, err := p.cfg.Location()
	if err != nil {
		log.Warnf("timezone %q: %v, using local time", p.cfg.Timezone, err)
	}
	return invocation.NewProjector(loc, p.cfg.Lang())
}

// attach 注册渲染处理器，必须在 Run 之前调用。
func (p *pipeline) attach(surface render.Surface) *render.Registry {
	registry := render.NewRegistry(p.projector(), surface)
	p.dispatch.Use(events.HandlerFunc(func(ctx context.Context, u events.Update) error {
		_, err := registry.Handle(ctx, u.Fragment())
		return err
	}))
	return registry
}

// useTUI 判断是否使用交互界面：未指定 --plain 且 stdout 是终端。
func useTUI(root rootArgs, stdout io.Writer) bool {
	if root.plain {
		return false
	}
	f, ok := stdout.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (p *pipeline) run(ctx context.Context, src sourceFunc, view viewOptions, stdout io.Writer) error {
	defer p.close()
	if view.plain {
		return p.runPlain(ctx, src, view, stdout)
	}
	return p.runTUI(ctx, src, view)
}

func (p *pipeline) runPlain(ctx context.Context, src sourceFunc, view viewOptions, stdout io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := p.attach(plain.New(stdout, p.cfg.Lang(), 0))
	if view.stopWhenTerminal {
		p.dispatch.Stop = registry.AllTerminal
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer p.queue.Close()
		return src(gctx, p.queue)
	})
	g.Go(func() error {
		err := p.dispatch.Run(gctx)
		// 分发器提前结束（所有显示已终态）时停止数据源。
		cancel()
		return err
	})
	return quiet(g.Wait())
}

func (p *pipeline) runTUI(ctx context.Context, src sourceFunc, view viewOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program, _ := tui.NewProgram(ctx, tui.Options{
		Language:  string(p.cfg.Lang()),
		Title:     view.title,
		AltScreen: true,
	})
	surface := tui.NewSurface(program)
	p.attach(surface)

	var srcErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := src(gctx, p.queue)
		p.queue.Close()
		if quiet(err) != nil {
			log.Warnf("source stopped: %v", err)
			srcErr = err
		}
		// 界面保持打开，直到用户退出。
		surface.Finish(quiet(err))
		return nil
	})
	g.Go(func() error {
		return quiet(p.dispatch.Run(gctx))
	})
	g.Go(func() error {
		defer cancel()
		return tui.Run(ctx, program)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return srcErr
}

// quiet 忽略取消类错误：用户退出或信号中断都属于正常结束。
func quiet(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
