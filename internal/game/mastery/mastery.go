// Package mastery persists the per-character mastery point accumulator.
package mastery

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
)

// Record is one character's mastery state.
//
// Invariant: 0 <= SpentPoints <= TotalPoints.
type Record struct {
	TotalPoints int            `json:"totalPoints"`
	SpentPoints int            `json:"spentPoints"`
	Talents     map[string]int `json:"talents"`
}

// Available returns the points not yet spent.
func (r Record) Available() int {
	return r.TotalPoints - r.SpentPoints
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.Talents = maps.Clone(r.Talents)
	if r.Talents == nil {
		r.Talents = map[string]int{}
	}
	return r
}

// Data maps character IDs to their mastery records.
type Data map[string]Record

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for id, r := range d {
		out[id] = r.Clone()
	}
	return out
}

// IDs returns the character IDs in d, sorted.
func (d Data) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Marshal encodes d as the stored JSON blob.
func Marshal(d Data) ([]byte, error) {
	if d == nil {
		d = Data{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding mastery data: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a stored JSON blob. An empty blob decodes to empty data.
//
// Postcondition: on success every record has a non-nil Talents map.
func Unmarshal(b []byte) (Data, error) {
	d := Data{}
	if len(b) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decoding mastery data: %w", err)
	}
	for id, r := range d {
		d[id] = r.Clone()
	}
	return d, nil
}
