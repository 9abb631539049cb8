package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend keeps one JSON file per key inside a directory.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put writes through a temp file and renames it into place so a crash never
// leaves a half-written record behind.
func (b *FileBackend) Put(key string, value []byte) error {
	path := b.path(key)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := f.Write(value); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (b *FileBackend) Delete(key string) error {
	if err := os.Remove(b.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }
