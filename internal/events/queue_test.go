package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"brane-view/internal/invocation"
)

func TestUpdateQueueFanout(t *testing.T) {
	q := NewUpdateQueue(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub1 := q.Subscribe()
	sub2 := q.Subscribe()

	u := Update{DisplayID: "d", Kind: KindDisplay, Timestamp: time.Now()}
	if err := q.Publish(ctx, u); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for i, sub := range []<-chan Update{sub1, sub2} {
		select {
		case got := <-sub:
			if got.DisplayID != "d" || got.Kind != KindDisplay {
				t.Fatalf("subscriber%d got %+v", i+1, got)
			}
		case <-ctx.Done():
			t.Fatalf("timeout waiting subscriber%d", i+1)
		}
	}
}

func TestUpdateQueueDropsForSlowSubscriber(t *testing.T) {
	q := NewUpdateQueue(1)
	q.Subscribe()
	ctx := context.Background()

	if err := q.Publish(ctx, Update{DisplayID: "a"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := q.Publish(ctx, Update{DisplayID: "b"}); !errors.Is(err, ErrUpdateDropped) {
		t.Fatalf("expected ErrUpdateDropped, got %v", err)
	}
}

func TestUpdateQueueDeliverBlocksUntilRead(t *testing.T) {
	q := NewUpdateQueue(1)
	sub := q.Subscribe()
	ctx := context.Background()

	if err := q.Deliver(ctx, Update{DisplayID: "a"}); err != nil {
		t.Fatalf("deliver a: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- q.Deliver(ctx, Update{DisplayID: "b"}) }()

	select {
	case <-done:
		t.Fatal("Deliver returned while subscriber buffer was full")
	case <-time.After(20 * time.Millisecond):
	}
	<-sub
	if err := <-done; err != nil {
		t.Fatalf("deliver b: %v", err)
	}
	if got := <-sub; got.DisplayID != "b" {
		t.Fatalf("got %q, want b", got.DisplayID)
	}
}

func TestUpdateQueueClosed(t *testing.T) {
	q := NewUpdateQueue(1)
	sub := q.Subscribe()
	q.Close()
	q.Close()

	if _, ok := <-sub; ok {
		t.Fatal("expected subscription closed")
	}
	if err := q.Publish(context.Background(), Update{}); !errors.Is(err, ErrUpdateQueueClosed) {
		t.Fatalf("expected ErrUpdateQueueClosed, got %v", err)
	}
	if _, ok := <-q.Subscribe(); ok {
		t.Fatal("subscribe after close should yield closed channel")
	}
	if q.SubscriberCount() != 0 {
		t.Fatalf("SubscriberCount = %d", q.SubscriberCount())
	}
}

func TestDispatcherRunsHandlersInOrder(t *testing.T) {
	q := NewUpdateQueue(8)
	d := NewDispatcher(q)

	var seen []string
	d.Use(HandlerFunc(func(_ context.Context, u Update) error {
		seen = append(seen, "journal:"+u.DisplayID)
		return nil
	}))
	d.Use(HandlerFunc(func(_ context.Context, u Update) error {
		seen = append(seen, "render:"+u.DisplayID)
		return errors.New("ignored")
	}))
	d.Use(nil)

	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if err := q.Deliver(ctx, Update{DisplayID: id}); err != nil {
			t.Fatalf("deliver: %v", err)
		}
	}
	q.Close()

	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"journal:a", "render:a", "journal:b", "render:b"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestDispatcherStop(t *testing.T) {
	q := NewUpdateQueue(8)
	d := NewDispatcher(q)
	var count atomic.Int32
	d.Use(HandlerFunc(func(context.Context, Update) error {
		count.Add(1)
		return nil
	}))
	d.Stop = func() bool { return count.Load() >= 2 }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = q.Deliver(ctx, Update{})
	}
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := count.Load(); got != 2 {
		t.Fatalf("handled %d updates, want 2", got)
	}
}

func TestDispatcherCancel(t *testing.T) {
	q := NewUpdateQueue(1)
	d := NewDispatcher(q)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
}

func TestFromFragment(t *testing.T) {
	frag := invocation.Fragment{DisplayID: "x", Update: true, Record: invocation.Record{Status: invocation.StatusRunning}}
	u := FromFragment(frag, "stream")
	if u.Kind != KindUpdate || u.Source != "stream" || u.Timestamp.IsZero() {
		t.Fatalf("unexpected update %+v", u)
	}
	back := u.Fragment()
	if !back.Update || back.DisplayID != "x" || back.Record.Status != invocation.StatusRunning {
		t.Fatalf("unexpected fragment %+v", back)
	}
	if FromFragment(invocation.Fragment{}, "").Kind != KindDisplay {
		t.Fatal("non-update fragment should be a display")
	}
}
