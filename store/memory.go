package store

import (
	"slices"
	"sync"
)

// MemoryStore keeps everything in memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryStore(records ...Record) *MemoryStore {
	return &MemoryStore{records: slices.Clone(records)}
}

func (m *MemoryStore) List() ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return []Record{}, nil
	}
	return slices.Clone(m.records), nil
}

func (m *MemoryStore) Add(name, phone, email string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := Record{Name: name, Phone: phone, Email: email}
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *MemoryStore) Search(name string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filterSearch(m.records, name), nil
}

func (m *MemoryStore) Delete(name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept, removed := without(m.records, name)
	m.records = kept
	return removed, nil
}
