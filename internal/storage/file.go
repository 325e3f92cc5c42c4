package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"arbScope/internal/model"
)

// FileStore keeps verdicts in a single JSON document keyed by canonical hash. Every upsert
// rewrites the document through a temp file and rename.
type FileStore struct {
	path string

	mu      sync.Mutex
	loaded  bool
	records map[string]model.Verdict
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}

	s.records = make(map[string]model.Verdict)
	stat, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("stat store: %w", err)
	}
	if stat.IsDir() {
		return fmt.Errorf("store path is a directory")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return fmt.Errorf("parse store: %w", err)
		}
	}
	s.loaded = true
	return nil
}

// Upsert replaces the record stored under the verdict's canonical hash.
func (s *FileStore) Upsert(_ context.Context, verdict model.Verdict) error {
	if err := verdict.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	key := verdict.Hash.Hex()
	prev, existed := s.records[key]
	s.records[key] = verdict
	if err := s.flush(); err != nil {
		if existed {
			s.records[key] = prev
		} else {
			delete(s.records, key)
		}
		return err
	}
	return nil
}

// LatestBlock returns the highest block number among stored verdicts.
func (s *FileStore) LatestBlock(_ context.Context) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return 0, false, err
	}
	if len(s.records) == 0 {
		return 0, false, nil
	}
	var latest uint64
	for _, v := range s.records {
		if v.BlockNumber > latest {
			latest = v.BlockNumber
		}
	}
	return latest, true, nil
}

// Verdicts returns a copy of every stored verdict keyed by canonical hash.
func (s *FileStore) Verdicts() (map[string]model.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}
	out := make(map[string]model.Verdict, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out, nil
}

func (s *FileStore) flush() error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write store tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename store: %w", err)
	}
	return nil
}
