// Package store defines the contact record store interface and its backends.
package store

import (
	"errors"
	"strings"
)

var (
	// ErrStorageUnavailable is returned when a store cannot be opened: the
	// backing file is missing, unreadable or not a JSON array of records.
	ErrStorageUnavailable = errors.New("store: storage unavailable")

	// ErrPersistenceFailure is returned when a mutation could not be written
	// to the backing storage. The in-memory state is rolled back.
	ErrPersistenceFailure = errors.New("store: persistence failure")
)

// Record is a single contact entry. Fields are free-form text.
type Record struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Store is the interface that all backing stores must implement.
// Records are kept in insertion order and identified by name, which is
// not unique.
type Store interface {
	// List returns every record in insertion order. An empty store
	// returns an empty slice and a nil error.
	List() ([]Record, error)

	// Add appends a record and persists the whole sequence.
	Add(name, phone, email string) (Record, error)

	// Search returns every record whose name matches case-insensitively.
	Search(name string) ([]Record, error)

	// Delete removes every record whose name matches exactly and persists
	// the result. Returns the number of records removed.
	Delete(name string) (int, error)
}

// searchMatch reports whether a record name matches a search term.
func searchMatch(recordName, term string) bool {
	return strings.EqualFold(recordName, term)
}

// deleteMatch reports whether a record name matches a delete term.
// Unlike search this is case-sensitive.
func deleteMatch(recordName, term string) bool {
	return recordName == term
}

func filterSearch(records []Record, name string) []Record {
	found := []Record{}
	for _, r := range records {
		if searchMatch(r.Name, name) {
			found = append(found, r)
		}
	}
	return found
}

// without returns the records not matching name for delete, and how many
// were dropped. records is not modified.
func without(records []Record, name string) ([]Record, int) {
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if !deleteMatch(r.Name, name) {
			kept = append(kept, r)
		}
	}
	return kept, len(records) - len(kept)
}
