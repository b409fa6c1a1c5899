package store

import (
	"fmt"
	"io"
)

// New creates a Store based on the backend name.
//
// Supported backends:
//
//	"json"   - JSON array file at path (default)
//	"sqlite" - SQLite database at path
//	"memory" - In-memory (ephemeral, for testing), path is ignored
func New(backend, path string) (Store, error) {
	switch backend {
	case "json", "":
		return OpenJsonFileStore(path)
	case "sqlite":
		return NewSqliteStore(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, memory)", backend)
	}
}

// Close releases resources held by s, if it holds any.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
