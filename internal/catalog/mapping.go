package catalog

import (
	"fmt"
	"iter"

	"soundunpack/internal/fileutil"
)

// Entry is the source admitted for one destination.
type Entry struct {
	Source   string
	Archive  string
	Language string
	ID       string
	// Digest is set when the source was hashed during collision resolution.
	Digest fileutil.Digest
}

// Mapping is an insertion-ordered destination → Entry map. Keys are never
// overwritten or removed.
type Mapping struct {
	order   []string
	entries map[string]Entry
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{entries: make(map[string]Entry)}
}

// Len returns the number of destinations.
func (m *Mapping) Len() int {
	return len(m.order)
}

// Get returns the entry for destination.
func (m *Mapping) Get(destination string) (Entry, bool) {
	entry, ok := m.entries[destination]
	return entry, ok
}

// Keys returns destinations in insertion order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.order))
	copy(keys, m.order)
	return keys
}

// All iterates destinations and entries in insertion order.
func (m *Mapping) All() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for _, key := range m.order {
			if !yield(key, m.entries[key]) {
				return
			}
		}
	}
}

// Add inserts a new destination. Adding an existing key is an error.
func (m *Mapping) Add(destination string, entry Entry) error {
	if _, exists := m.entries[destination]; exists {
		return fmt.Errorf("destination %s already mapped", destination)
	}
	m.entries[destination] = entry
	m.order = append(m.order, destination)
	return nil
}
