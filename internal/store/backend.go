package store

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/rezmoss/beefocus/internal/core"
)

// Backend is a flat key-value space holding JSON documents. Get returns
// nil, nil for a missing key.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	sqliteFile = "beefocus.db"
)

// Open builds the named backend rooted at dir. debug only affects sqlite.
func Open(kind, dir string, debug bool, log *slog.Logger) (Backend, error) {
	switch kind {
	case BackendFile, "":
		return NewFileBackend(dir)
	case BackendSQLite:
		return NewSQLiteBackend(filepath.Join(dir, sqliteFile), debug, log)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedBackend, kind)
	}
}
