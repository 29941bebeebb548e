// ABOUTME: Ordered result mapping from revision id to reference count
// ABOUTME: Keeps request order and guarantees one entry per requested revision

package domain

import (
	"bytes"
	"encoding/json"
)

// Entry pairs a revision with its result
type Entry struct {
	ID     RevisionID
	Result ReferenceCount
}

// ResultMapping maps stringified revision ids to results in insertion order
type ResultMapping struct {
	keys    []string
	entries map[string]ReferenceCount
}

// NewResultMapping returns a mapping holding an empty result for every id.
// Repeated ids keep their first position.
func NewResultMapping(ids []RevisionID) *ResultMapping {
	m := &ResultMapping{
		keys:    make([]string, 0, len(ids)),
		entries: make(map[string]ReferenceCount, len(ids)),
	}
	for _, id := range ids {
		m.add(id.String(), EmptyReferenceCount())
	}
	return m
}

// Merge builds a mapping from entries in their order. The first entry
// for a key wins.
func Merge(entries []Entry) *ResultMapping {
	m := &ResultMapping{
		keys:    make([]string, 0, len(entries)),
		entries: make(map[string]ReferenceCount, len(entries)),
	}
	for _, e := range entries {
		m.add(e.ID.String(), e.Result)
	}
	return m
}

func (m *ResultMapping) add(key string, result ReferenceCount) {
	if _, exists := m.entries[key]; exists {
		return
	}
	m.keys = append(m.keys, key)
	m.entries[key] = result
}

// Set records the result for id, appending the key if it is new
func (m *ResultMapping) Set(id RevisionID, result ReferenceCount) {
	key := id.String()
	if _, exists := m.entries[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = result
}

// Get returns the result stored under key
func (m *ResultMapping) Get(key string) (ReferenceCount, bool) {
	r, ok := m.entries[key]
	return r, ok
}

// Keys returns the keys in insertion order
func (m *ResultMapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries
func (m *ResultMapping) Len() int {
	return len(m.keys)
}

// Entries returns the mapping as ordered entries
func (m *ResultMapping) Entries() []Entry {
	out := make([]Entry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, Entry{ID: RevisionID(k), Result: m.entries[k]})
	}
	return out
}

// MarshalJSON encodes the mapping as a JSON object in insertion order
func (m *ResultMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
