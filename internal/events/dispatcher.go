package events

import (
	"context"
	"errors"
	"sync"
)

// Handler 处理一条 Update。
type Handler interface {
	Handle(ctx context.Context, u Update) error
}

// HandlerFunc 让函数实现 Handler。
type HandlerFunc func(ctx context.Context, u Update) error

func (f HandlerFunc) Handle(ctx context.Context, u Update) error {
	return f(ctx, u)
}

// Dispatcher 串行消费一个订阅，依次交给已注册的处理器。
// 同一 display 的更新因此一次只处理一条。
type Dispatcher struct {
	updates  <-chan Update
	hmu      sync.RWMutex
	handlers []Handler
	// Stop 在每条更新处理后调用，返回 true 时 Run 提前结束。
	Stop func() bool
}

// NewDispatcher 订阅队列并创建分发器；订阅在此刻建立，避免丢失 Run 之前发布的更新。
func NewDispatcher(queue *UpdateQueue) *Dispatcher {
	return &Dispatcher{updates: queue.Subscribe()}
}

// Use 追加处理器，按注册顺序调用。
func (d *Dispatcher) Use(h Handler) {
	if h == nil {
		return
	}
	d.hmu.Lock()
	d.handlers = append(d.handlers, h)
	d.hmu.Unlock()
}

// Run 阻塞直到队列关闭、ctx 取消或 Stop 返回 true。
// 处理器返回的普通错误只记录日志，不会中断分发。
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-d.updates:
			if !ok {
				return nil
			}
			if err := d.dispatch(ctx, u); err != nil {
				return err
			}
			if d.Stop != nil && d.Stop() {
				return nil
			}
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, u Update) error {
	d.hmu.RLock()
	handlers := append([]Handler{}, d.handlers...)
	d.hmu.RUnlock()

	for _, h := range handlers {
		err := h.Handle(ctx, u)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			log.WithField("display", u.DisplayID).Warnf("handler failed: %v", err)
		}
	}
	return nil
}
