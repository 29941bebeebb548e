// ABOUTME: Revision identifier and reference count result models
// ABOUTME: Revision ids are opaque and always keyed by their string form

package domain

import (
	"encoding/json"
	"strconv"
)

// RevisionID identifies a single revision. It is opaque: numeric and
// string identifiers are both accepted and never checked for existence.
type RevisionID string

// RevisionIDFromInt converts a numeric revision id
func RevisionIDFromInt(id int64) RevisionID {
	return RevisionID(strconv.FormatInt(id, 10))
}

// RevisionIDFromString wraps a string revision id
func RevisionIDFromString(id string) RevisionID {
	return RevisionID(id)
}

// RevisionIDsFromInts converts a slice of numeric revision ids
func RevisionIDsFromInts(ids []int64) []RevisionID {
	out := make([]RevisionID, len(ids))
	for i, id := range ids {
		out[i] = RevisionIDFromInt(id)
	}
	return out
}

// String returns the key used for the revision in a ResultMapping
func (id RevisionID) String() string {
	return string(id)
}

// ReferenceCount is the counter API result for one revision.
// A nil NumReferences means the revision could not be counted.
type ReferenceCount struct {
	NumReferences *int `json:"num_ref,omitempty"`
}

// NewReferenceCount returns a successful result
func NewReferenceCount(n int) ReferenceCount {
	return ReferenceCount{NumReferences: &n}
}

// EmptyReferenceCount returns the result recorded for any failure
func EmptyReferenceCount() ReferenceCount {
	return ReferenceCount{}
}

// IsEmpty reports whether the result carries no count
func (r ReferenceCount) IsEmpty() bool {
	return r.NumReferences == nil
}

// Count returns the number of references and whether one is present
func (r ReferenceCount) Count() (int, bool) {
	if r.NumReferences == nil {
		return 0, false
	}
	return *r.NumReferences, true
}

// MarshalJSON encodes a success as {"num_ref":N} and a failure as {}
func (r ReferenceCount) MarshalJSON() ([]byte, error) {
	if r.NumReferences == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(struct {
		NumReferences int `json:"num_ref"`
	}{*r.NumReferences})
}
