package events

import (
	"context"
	"errors"
	"sync"

	"brane-view/internal/logger"
)

var (
	// ErrUpdateQueueClosed 表示更新队列已关闭。
	ErrUpdateQueueClosed = errors.New("update queue closed")
	// ErrUpdateDropped 表示更新被慢消费者丢弃。
	ErrUpdateDropped = errors.New("update dropped by slow subscriber")
)

// UpdateQueue 负责把快照广播给所有订阅者，每个订阅者一个带缓冲的通道。
type UpdateQueue struct {
	mu     sync.Mutex
	subs   []chan Update
	buffer int
	closed bool
	log    *logger.LogEntry
}

// NewUpdateQueue 创建更新队列，buffer 是每个订阅者的缓存大小。
func NewUpdateQueue(buffer int) *UpdateQueue {
	if buffer <= 0 {
		buffer = 64
	}
	return &UpdateQueue{buffer: buffer, log: logger.Named("updates")}
}

// SetLogger 覆盖队列使用的 logger。
func (q *UpdateQueue) SetLogger(entry *logger.LogEntry) {
	if entry == nil {
		return
	}
	q.log = entry
}

// Subscribe 订阅更新流。通道会在 Close 时关闭。
func (q *UpdateQueue) Subscribe() <-chan Update {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		ch := make(chan Update)
		close(ch)
		return ch
	}
	ch := make(chan Update, q.buffer)
	q.subs = append(q.subs, ch)
	return ch
}

func (q *UpdateQueue) snapshot() ([]chan Update, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrUpdateQueueClosed
	}
	return append([]chan Update{}, q.subs...), nil
}

// Publish 非阻塞地发布更新；若有订阅者缓冲已满则丢弃并返回 ErrUpdateDropped。
func (q *UpdateQueue) Publish(ctx context.Context, u Update) error {
	subs, err := q.snapshot()
	if err != nil {
		return err
	}
	dropped := false
	for _, ch := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- u:
		default:
			dropped = true
		}
	}
	q.logUpdate(u, dropped)
	if dropped {
		return ErrUpdateDropped
	}
	return nil
}

// Deliver 阻塞直到每个订阅者都收到更新或 ctx 取消。
// 数据源使用它，以免丢失终态快照。
func (q *UpdateQueue) Deliver(ctx context.Context, u Update) error {
	subs, err := q.snapshot()
	if err != nil {
		return err
	}
	for _, ch := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- u:
		}
	}
	q.logUpdate(u, false)
	return nil
}

// Close 关闭队列和所有订阅通道。
// 调用方需保证 Close 之后不再有进行中的 Deliver。
func (q *UpdateQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	subs := q.subs
	q.subs = nil
	q.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// SubscriberCount 返回当前订阅者数量。
func (q *UpdateQueue) SubscriberCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs)
}

func (q *UpdateQueue) logUpdate(u Update, dropped bool) {
	if q.log == nil {
		return
	}
	fields := logger.Fields{
		"display": u.DisplayID,
		"kind":    u.Kind,
		"status":  u.Record.Status,
	}
	if u.Source != "" {
		fields["source"] = u.Source
	}
	if payload := encodePayload(u.Record); payload != "" {
		fields["payload"] = payload
	}
	if dropped {
		q.log.WithFields(fields).Warn("update dropped by slow subscriber")
		return
	}
	q.log.WithFields(fields).Debug("published update")
}
