// ABOUTME: Public result types for the reference counter library
// ABOUTME: Wraps the ordered domain mapping behind a read-only view

package refcounter

import (
	"refcounter-api/core/domain"
)

// Count is the result for one revision. Known is false when the
// revision could not be counted.
type Count struct {
	RevID         string `json:"rev_id"`
	NumReferences int    `json:"num_ref"`
	Known         bool   `json:"known"`
}

// Results is the ordered outcome of one Fetch call
type Results struct {
	mapping *domain.ResultMapping
}

func newResults(mapping *domain.ResultMapping) Results {
	return Results{mapping: mapping}
}

// Len returns the number of distinct revisions requested
func (r Results) Len() int {
	return r.mapping.Len()
}

// Get returns the count for a revision id
func (r Results) Get(revID string) (Count, bool) {
	result, ok := r.mapping.Get(revID)
	if !ok {
		return Count{}, false
	}
	n, known := result.Count()
	return Count{RevID: revID, NumReferences: n, Known: known}, true
}

// Counts returns every result in request order
func (r Results) Counts() []Count {
	counts := make([]Count, 0, r.mapping.Len())
	for _, entry := range r.mapping.Entries() {
		n, known := entry.Result.Count()
		counts = append(counts, Count{RevID: entry.ID.String(), NumReferences: n, Known: known})
	}
	return counts
}

// MarshalJSON renders the mapping as {"rev_id": {"num_ref": N}} with
// uncounted revisions as {}
func (r Results) MarshalJSON() ([]byte, error) {
	return r.mapping.MarshalJSON()
}
