package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps values in a single JSON object on disk, rewritten on
// every mutation. It is what the terminal dashboard uses by default so a
// login survives restarts the way browser storage survives reloads.
type FileStorage struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// NewFileStorage opens (or lazily creates) the JSON file at path.
func NewFileStorage(path string) (*FileStorage, error) {
	f := &FileStorage{path: path, values: map[string]string{}}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileStorage) load() error {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(b) == 0 {
		return nil
	}
	loaded := map[string]string{}
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	f.values = loaded
	return nil
}

func (f *FileStorage) saveLocked() error {
	b, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (f *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileStorage) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.saveLocked()
}

func (f *FileStorage) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := false
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.saveLocked()
}
