package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ragmail/internal/domain"
)

// Log is an append-only JSON array on disk. Append rewrites the whole file, so it is not
// safe for concurrent writers.
type Log struct {
	path string
	now  func() time.Time
}

func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

func (l *Log) Path() string { return l.path }

// NewEntry stamps an entry with a fresh id and the current time.
func (l *Log) NewEntry(model string, thread domain.EmailThread, retrieved *string, reply string) domain.LogEntry {
	return domain.LogEntry{
		ID:               uuid.NewString(),
		Timestamp:        l.now(),
		Model:            model,
		QueryEmail:       thread.CurrentMessage,
		EmailThread:      thread.FullThread,
		RetrievedContext: retrieved,
		GeneratedReply:   reply,
	}
}

// Append adds entry to the end of the log, creating the file with a one-element array when absent.
func (l *Log) Append(entry domain.LogEntry) error {
	entries, err := l.Entries()
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run log: %w", err)
	}
	return writeFile(l.path, append(data, '\n'))
}

// Entries returns every entry in append order. A missing file is an empty log; a file that is
// not a JSON array of entries is an error.
func (l *Log) Entries() ([]domain.LogEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run log: %w", err)
	}
	var entries []domain.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("run log %s is not a JSON array of entries: %w", l.path, err)
	}
	return entries, nil
}

// Tail returns the last n entries, oldest first. n <= 0 returns every entry.
func (l *Log) Tail(n int) ([]domain.LogEntry, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write run log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write run log: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace run log: %w", err)
	}
	return nil
}
