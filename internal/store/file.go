package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend keeps each namespace in <Dir>/<namespace>.json.
type FileBackend struct {
	Dir string
}

// Open loads the namespace file, creating Dir if needed. A missing file is an
// empty namespace; a corrupt one is an error.
func (b FileBackend) Open(namespace string) (Store, error) {
	if namespace == "" || namespace != filepath.Base(namespace) {
		return nil, fmt.Errorf("invalid namespace %q", namespace)
	}
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &fileStore{
		path:   filepath.Join(b.Dir, namespace+".json"),
		values: map[string]byte{},
	}
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	default:
		if err := json.Unmarshal(data, &s.values); err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.path, err)
		}
	}
	return s, nil
}

type fileStore struct {
	path string

	mu     sync.Mutex
	values map[string]byte
	closed bool
}

func (s *fileStore) GetByte(key string, def byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

func (s *fileStore) PutByte(key string, v byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if old, ok := s.values[key]; ok && old == v {
		return nil
	}
	s.values[key] = v
	return s.flushLocked()
}

// flushLocked replaces the file atomically: write a temp file in the same
// directory, sync it, then rename over the old one.
func (s *fileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
