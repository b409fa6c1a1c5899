package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SqliteStore keeps records in a single SQLite table. Insertion order is the
// rowid order.
//
// Table:
//
//	contacts(id INTEGER PRIMARY KEY AUTOINCREMENT, name, phone, email)
type SqliteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSqliteStore opens or creates the database at dbPath. Any failure wraps
// ErrStorageUnavailable.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrStorageUnavailable, dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: opening %s: %w", ErrStorageUnavailable, dbPath, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS contacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating table in %s: %w", ErrStorageUnavailable, dbPath, err)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) List() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAll()
}

func (s *SqliteStore) queryAll() ([]Record, error) {
	rows, err := s.db.Query("SELECT name, phone, email FROM contacts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.Phone, &r.Email); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *SqliteStore) Add(name, phone, email string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		"INSERT INTO contacts (name, phone, email) VALUES (?, ?, ?)",
		name, phone, email,
	)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	return Record{Name: name, Phone: phone, Email: email}, nil
}

// Search filters in Go rather than with COLLATE NOCASE, which only folds
// ASCII, so matching is identical to the file backend.
func (s *SqliteStore) Search(name string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all, err := s.queryAll()
	if err != nil {
		return nil, err
	}
	return filterSearch(all, name), nil
}

func (s *SqliteStore) Delete(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec("DELETE FROM contacts WHERE name = ?", name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
