package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/kjk/common/atomicfile"
)

// JsonFileStore keeps all records in memory and rewrites a single JSON file
// after every mutation.
//
// File layout:
//
//	[
//	    {
//	        "name": "Alice",
//	        "phone": "555-1234",
//	        "email": "alice@example.com"
//	    }
//	]
//
// Only one process should write a given file at a time.
type JsonFileStore struct {
	mu      sync.RWMutex
	path    string
	records []Record

	// persist writes the full record sequence to path.
	persist func(path string, records []Record) error
}

// OpenJsonFileStore loads every record from path. The file must exist and
// contain a JSON array; otherwise the error wraps ErrStorageUnavailable.
func OpenJsonFileStore(path string) (*JsonFileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrStorageUnavailable, path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrStorageUnavailable, path, err)
	}
	if records == nil {
		records = []Record{}
	}
	// rewrites rename over the path, so write through to a symlink's target
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return &JsonFileStore{
		path:    path,
		records: records,
		persist: writeRecordsFile,
	}, nil
}

// InitJsonFile creates path holding an empty array, along with any missing
// parent directories. An existing file is left untouched.
func InitJsonFile(path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("store: checking %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("store: creating directory for %s: %w", path, err)
	}
	if err := writeRecordsFile(path, []Record{}); err != nil {
		return false, fmt.Errorf("store: writing %s: %w", path, err)
	}
	return true, nil
}

// Path returns the backing file path, with symlinks resolved.
func (s *JsonFileStore) Path() string {
	return s.path
}

func (s *JsonFileStore) List() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), nil
}

func (s *JsonFileStore) Add(name, phone, email string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{Name: name, Phone: phone, Email: email}
	next := append(slices.Clip(s.records), rec)
	if err := s.save(next); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *JsonFileStore) Search(name string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterSearch(s.records, name), nil
}

func (s *JsonFileStore) Delete(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept, removed := without(s.records, name)
	if err := s.save(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// save persists next and makes it the current sequence only if the write
// succeeded. Callers must hold s.mu for writing.
func (s *JsonFileStore) save(next []Record) error {
	if err := s.persist(s.path, next); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrPersistenceFailure, s.path, err)
	}
	s.records = next
	return nil
}

func encodeRecords(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newFileMode is the mode of a contacts file created by this package.
const newFileMode os.FileMode = 0o644

// writeRecordsFile replaces path with the encoded records. The data goes to
// a temporary file in the same directory which is renamed over path, so a
// failed write never leaves a truncated file behind. The replaced file's
// permissions carry over.
func writeRecordsFile(path string, records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	mode := newFileMode
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// the new data is already in place; a failed chmod only leaves the
	// temp file's 0600
	_ = os.Chmod(path, mode)
	return nil
}
