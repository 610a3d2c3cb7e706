package windowsize

import (
	"slices"
	"sort"
)

// Store is the ordered collection of saved records, kept sorted by
// (Name, Title). Records are held by pointer so match results can update
// them in place.
//
// Not safe for concurrent use; the owner serializes access.
type Store struct {
	records []*Record
}

// NewStore copies records into a new store and sorts them.
func NewStore(records []Record) *Store {
	s := &Store{}
	s.Replace(records)
	return s
}

// Replace discards the current contents and loads a sorted copy of records.
func (s *Store) Replace(records []Record) {
	s.records = make([]*Record, 0, len(records))
	for i := range records {
		r := records[i]
		s.records = append(s.records, &r)
	}
	// Stable keeps the relative order of equal (Name, Title) pairs so the
	// "first match wins" rule stays deterministic across reloads.
	sort.SliceStable(s.records, func(i, j int) bool {
		return less(*s.records[i], *s.records[j])
	})
}

// Insert adds record at its sorted position and returns the stored pointer.
// Among equal keys the new record goes last.
func (s *Store) Insert(record Record) *Record {
	idx := sort.Search(len(s.records), func(i int) bool {
		return compare(*s.records[i], record) > 0
	})
	stored := &record
	s.records = slices.Insert(s.records, idx, stored)
	return stored
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Records returns a value copy of all records in store order.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = *r
	}
	return out
}

// all exposes the live pointers to the matcher.
func (s *Store) all() []*Record {
	return s.records
}
