package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"searcharr/internal/core/domain/models"
	"searcharr/internal/core/domain/ports"
)

var _ ports.StateStore = (*FileStateStore)(nil)

// FileStateStore persists last-search timestamps as one flat JSON document,
// {"<scoped_key>": "<RFC 3339 timestamp>", ...}. Entries are never pruned;
// unbounded growth is an accepted tradeoff.
type FileStateStore struct {
	path string
}

func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

// Load reads the state file. A missing file is an empty state (first run). A
// file that exists but does not decode as the timestamp mapping is fatal:
// treating it as empty would silently discard cooldown history and re-trigger
// searches too early.
func (s *FileStateStore) Load(_ context.Context) (map[string]time.Time, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]time.Time{}, nil
	}
	if err != nil {
		return nil, models.Errorf(models.KindStateCorrupt, "read state file %s: %w", s.path, err)
	}

	state := map[string]time.Time{}
	if len(bytes.TrimSpace(data)) == 0 {
		// Created but never written to.
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, models.Errorf(models.KindStateCorrupt, "state file %s is not a key/timestamp mapping: %w", s.path, err)
	}
	return state, nil
}

// Save replaces the state file atomically: write a temp file in the target
// directory, fsync, then rename over the destination. An interrupted run can
// never leave a partially written file behind.
func (s *FileStateStore) Save(_ context.Context, state map[string]time.Time) error {
	if err := s.save(state); err != nil {
		return models.Errorf(models.KindStatePersist, "write state file %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStateStore) save(state map[string]time.Time) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
