package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MessageLogger appends timestamped lines to the conversation log. Writes go
// straight to the file so nothing is lost on a crash. A nil *MessageLogger
// discards everything.
type MessageLogger struct {
	mu  sync.Mutex
	f   *os.File
	now func() time.Time
}

// OpenMessageLogger opens path for appending, creating it and its directory
// if needed.
func OpenMessageLogger(path string) (*MessageLogger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open message log: %w", err)
	}
	return &MessageLogger{f: f, now: time.Now}, nil
}

// Log writes "[HH:MM:SS] msg".
func (l *MessageLogger) Log(msg string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return os.ErrClosed
	}
	_, err := fmt.Fprintf(l.f, "[%s] %s\n", l.now().Format("15:04:05"), msg)
	return err
}

// Close closes the file. Later writes fail with os.ErrClosed.
func (l *MessageLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
