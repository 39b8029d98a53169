package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the applied-set in a JSON file. The file is read once on open and
// rewritten on every mutation.
type FileStore struct {
	mu      sync.Mutex
	path    string
	records map[Key]Record
}

func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &FileStore{path: path, records: make(map[Key]Record)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	for _, r := range records {
		s.records[r.Key()] = r
	}
	return nil
}

// save writes through a temp file so a crash never leaves a truncated store.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(sortedRecords(s.records), "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Get(ctx context.Context, k Key) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[k]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (s *FileStore) Add(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.Key()]; ok {
		return ErrDuplicate
	}
	s.records[r.Key()] = r
	if err := s.save(); err != nil {
		delete(s.records, r.Key())
		return err
	}
	return nil
}

func (s *FileStore) Update(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.records[r.Key()]
	if !ok {
		return ErrNotFound
	}
	s.records[r.Key()] = r
	if err := s.save(); err != nil {
		s.records[r.Key()] = prev
		return err
	}
	return nil
}

func (s *FileStore) Remove(ctx context.Context, applicationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if applicationID == "" {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range s.records {
		if r.ApplicationID != applicationID {
			continue
		}
		delete(s.records, k)
		if err := s.save(); err != nil {
			s.records[k] = r
			return err
		}
		return nil
	}
	return ErrNotFound
}

func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedRecords(s.records), nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[Key]Record)
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
