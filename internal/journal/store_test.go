package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"brane-view/internal/events"
	"brane-view/internal/invocation"
	"brane-view/internal/value"
)

func TestStoreAppendsOneLinePerUpdate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "journal.jsonl")
	s := New(path)

	ret := value.NewInteger(3)
	ts := time.Date(2021, 3, 4, 17, 5, 9, 0, time.UTC)
	updates := []events.Update{
		{DisplayID: "d", Kind: events.KindDisplay, Record: invocation.Record{Status: invocation.StatusRunning}, Timestamp: ts},
		{DisplayID: "d", Kind: events.KindUpdate, Record: invocation.Record{Status: invocation.StatusComplete, ReturnValue: &ret}, Timestamp: ts},
	}
	for _, u := range updates {
		if err := s.Handle(context.Background(), u); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("journal has %d lines, want 2", len(lines))
	}
	frag, err := invocation.ParseFragment([]byte(lines[1]))
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if !frag.Update || frag.Record.Status != invocation.StatusComplete {
		t.Fatalf("unexpected second line %+v", frag)
	}
	if frag.Record.ReturnValue == nil || value.Decode(*frag.Record.ReturnValue) != "3" {
		t.Fatalf("return value lost: %+v", frag.Record.ReturnValue)
	}
}

func TestJournalLinesReplayAsFragments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.jsonl")
	s := New(path)
	if err := s.Append(events.Update{DisplayID: "d", Kind: events.KindUpdate, Record: invocation.Record{Status: invocation.StatusRunning}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	frag, err := invocation.ParseFragment([]byte(strings.TrimSpace(string(data))))
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if frag.DisplayID != "d" || !frag.Update {
		t.Fatalf("journal line parsed as %+v", frag)
	}
}

func TestStoreEmptyPath(t *testing.T) {
	t.Parallel()

	if err := New("").Append(events.Update{DisplayID: "x"}); err != ErrNoPath {
		t.Fatalf("Append with empty path = %v, want ErrNoPath", err)
	}
	if err := New(" ").Append(events.Update{DisplayID: "x"}); err != ErrNoPath {
		t.Fatalf("Append with blank path = %v, want ErrNoPath", err)
	}
}
