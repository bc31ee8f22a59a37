package journal

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"brane-view/internal/events"
)

// ErrNoPath 表示 journal 路径为空。
var ErrNoPath = errors.New("journal path is empty")

// Store 追加写入每个观察到的快照，每行一个 events.Update。
type Store struct {
	Path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{Path: path}
}

func (s *Store) ensureDir() error {
	if s == nil || strings.TrimSpace(s.Path) == "" {
		return ErrNoPath
	}
	return os.MkdirAll(filepath.Dir(s.Path), 0o755)
}

// Append 写入一条快照。
func (s *Store) Append(u events.Update) error {
	if s == nil {
		return errors.New("journal store is nil")
	}
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(data, '\n'))
	return err
}

// Handle 实现 events.Handler，让 journal 挂在分发器上。
func (s *Store) Handle(_ context.Context, u events.Update) error {
	return s.Append(u)
}
