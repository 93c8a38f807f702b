// Package collectlog persists the append-only collection audit trail:
// one line-delimited JSON entry per connector run. Entries are never
// mutated or deleted.
package collectlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kosmos/internal/domain"
)

// Store is the collection-log contract: serialized appends to an
// ordered, durable event sequence that never truncates prior entries.
type Store interface {
	Append(ctx context.Context, entry domain.CollectionLogEntry) error
	List(ctx context.Context) ([]domain.CollectionLogEntry, error)
}

// FileStore appends JSONL to a single log file. A mutex serializes
// writers so interleaved appends from parallel connectors can never
// corrupt a line; each entry is written with one Write call.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore opens (creating if needed) the log under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, "collection_log.jsonl")}, nil
}

// Path returns the log file location.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes one entry as a single JSON line.
func (s *FileStore) Append(_ context.Context, entry domain.CollectionLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open collection log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append collection log: %w", err)
	}
	return f.Sync()
}

// List reads every entry in append order. A missing file is an empty
// log, not an error.
func (s *FileStore) List(_ context.Context) ([]domain.CollectionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open collection log: %w", err)
	}
	defer f.Close()

	var entries []domain.CollectionLogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry domain.CollectionLogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("corrupt collection log line: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read collection log: %w", err)
	}
	return entries, nil
}
