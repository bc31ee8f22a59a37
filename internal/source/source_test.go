package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"brane-view/internal/events"
	"brane-view/internal/invocation"
	"brane-view/internal/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector is a Publisher that records every update.
type collector struct {
	mu      sync.Mutex
	updates []events.Update
}

func (c *collector) Deliver(_ context.Context, u events.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
	return nil
}

func (c *collector) all() []events.Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Update{}, c.updates...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// brane-api stores instructions and results as JSON strings.
func apiRecord(status string, ret string) map[string]any {
	rec := map[string]any{
		"id":                42,
		"uuid":              "inv-1",
		"status":            status,
		"created":           "2021-03-04T17:05:09.123456",
		"instructions_json": `[{"variant":"act","name":"hello"}]`,
	}
	if ret != "" {
		rec["return_json"] = ret
	}
	return rec
}

func TestPollerStopsOnTerminalStatus(t *testing.T) {
	var calls atomic.Int32
	statuses := []string{"created", "running", "running", "complete"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invocations/inv-1", r.URL.Path)
		n := int(calls.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		ret := ""
		if statuses[n] == "complete" {
			ret = `{"v":"unicode","c":"hello world"}`
		}
		writeJSON(w, http.StatusOK, apiRecord(statuses[n], ret))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", nil)
	require.NoError(t, err)
	out := &collector{}
	p := &Poller{Client: client, ID: "inv-1", Interval: time.Millisecond, Out: out}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	got := out.all()
	require.Len(t, got, 4)
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, events.KindDisplay, got[0].Kind)
	for _, u := range got[1:] {
		assert.Equal(t, events.KindUpdate, u.Kind)
	}
	last := got[3].Record
	assert.Equal(t, invocation.StatusComplete, last.Status)
	require.NotNil(t, last.ReturnValue)
	assert.Equal(t, "hello world", value.Decode(*last.ReturnValue))
	assert.JSONEq(t, `[{"variant":"act","name":"hello"}]`, string(last.Instructions))
	assert.Equal(t, "inv-1", got[0].DisplayID)
}

func TestPollerRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			http.Error(w, "db down", http.StatusInternalServerError)
		case 2:
			_, _ = w.Write([]byte("not json"))
		default:
			writeJSON(w, http.StatusOK, apiRecord("error", ""))
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	out := &collector{}
	p := &Poller{Client: client, ID: "inv-1", Interval: time.Millisecond, Out: out}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	got := out.all()
	require.Len(t, got, 1)
	assert.Equal(t, invocation.StatusError, got[0].Record.Status)
	assert.Equal(t, events.KindDisplay, got[0].Kind)
}

func TestPollerNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	p := &Poller{Client: client, ID: "missing", Interval: time.Millisecond, Out: &collector{}}
	assert.ErrorIs(t, p.Run(context.Background()), ErrNotFound)
}

func TestPollerNotFoundAfterSnapshotStops(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusOK, apiRecord("running", ""))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	out := &collector{}
	p := &Poller{Client: client, ID: "inv-1", Interval: time.Millisecond, Out: out}
	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, out.all(), 1)
}

func TestPollerCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, apiRecord("running", ""))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	p := &Poller{Client: client, ID: "inv-1", Interval: 5 * time.Millisecond, Out: &collector{}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Run(ctx), context.DeadlineExceeded)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	_, err = client.Invocation(context.Background(), "x")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "boom", se.Body)
}

func TestClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte("OK!\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	assert.NoError(t, client.Health(context.Background()))

	_, err = NewClient("  ", nil)
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, apiRecord("running", ""))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	frag, err := Snapshot(context.Background(), client, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", frag.DisplayID)
	assert.False(t, frag.Update)
	assert.Equal(t, invocation.StatusRunning, frag.Record.Status)
}

func TestStreamPublishesAndSkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		`{"msg_type":"display_data","content":{"data":{"application/vnd.brane.invocation+json":{"invocation":{"status":"created"}}},"transient":{"display_id":"d"}}}`,
		``,
		`garbage`,
		`{"msg_type":"stream","content":{"text":"hi"}}`,
		`{"msg_type":"update_display_data","content":{"data":{"application/vnd.brane.invocation+json":{"invocation":{"status":"complete","return_value":{"v":"integer","c":7}}}},"transient":{"display_id":"d"}}}`,
	}, "\n")

	out := &collector{}
	s := &Stream{Reader: strings.NewReader(input), Out: out, Name: "test"}
	require.NoError(t, s.Run(context.Background()))

	got := out.all()
	require.Len(t, got, 2)
	assert.Equal(t, events.KindDisplay, got[0].Kind)
	assert.Equal(t, events.KindUpdate, got[1].Kind)
	assert.Equal(t, "test", got[1].Source)
	require.NotNil(t, got[1].Record.ReturnValue)
	assert.Equal(t, "7", value.Decode(*got[1].Record.ReturnValue))
}

func TestStreamCancelWithBlockingReader(t *testing.T) {
	r, w := net.Pipe()
	defer w.Close()
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (&Stream{Reader: r, Out: &collector{}}).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStreamPace(t *testing.T) {
	lines := make([]string, 3)
	for i := range lines {
		lines[i] = fmt.Sprintf(`{"invocation":{"status":"running"},"display_id":"d%d"}`, i)
	}
	out := &collector{}
	s := &Stream{Reader: strings.NewReader(strings.Join(lines, "\n")), Out: out, Pace: 10 * time.Millisecond}

	start := time.Now()
	require.NoError(t, s.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Len(t, out.all(), 3)
}

func TestCheckReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	port := ln.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	assert.NoError(t, CheckReachable(ctx, fmt.Sprintf("http://127.0.0.1:%d", port)))
	assert.NoError(t, CheckReachable(ctx, fmt.Sprintf("127.0.0.1:%d", port)), "scheme defaults to http")
	assert.NoError(t, CheckReachable(ctx, ""))
	assert.Error(t, CheckReachable(ctx, "://bad"))
	assert.Error(t, CheckReachable(ctx, "ftp://127.0.0.1"))
}
