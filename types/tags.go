package types

import (
	"encoding/json"

	"golang.org/x/text/cases"
)

// FoldCase returns the case-folded form of s used for tag keys and value comparison.
func FoldCase(s string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Fold().String(s)
}

// TagMap is an ordered multi-valued tag store with case-insensitive keys.
// Keys are remembered in the order they were first added.
type TagMap struct {
	keys   []string
	values map[string][]string
}

// NewTagMap creates an empty tag map
func NewTagMap() *TagMap {
	return &TagMap{values: make(map[string][]string)}
}

// Add appends a value under key
func (m *TagMap) Add(key, value string) {
	k := FoldCase(key)
	if _, exists := m.values[k]; !exists {
		m.keys = append(m.keys, k)
	}
	m.values[k] = append(m.values[k], value)
}

// Get returns all values stored under key, in insertion order
func (m *TagMap) Get(key string) []string {
	if m == nil {
		return nil
	}
	return m.values[FoldCase(key)]
}

// First returns the first value stored under key
func (m *TagMap) First(key string) (string, bool) {
	values := m.Get(key)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Has reports whether key is present
func (m *TagMap) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[FoldCase(key)]
	return ok
}

// Keys returns the folded keys in first-insertion order
func (m *TagMap) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of distinct keys
func (m *TagMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON encodes the map as an object whose members follow insertion order.
func (m *TagMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	buf := []byte{'{'}
	for i, k := range m.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		values, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, values...)
	}
	return append(buf, '}'), nil
}
