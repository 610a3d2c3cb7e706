package windowsize

import (
	"fmt"
	"strings"
)

// Observation is the geometry of a window at the moment the user saved it.
type Observation struct {
	Process string
	Title   string
	Rect    Rect
	State   State
}

// Change describes one record touched by Reconcile.
type Change struct {
	Category Category
	Inserted bool
	Record   Record
}

// Result lists the records Reconcile inserted or updated, in application order.
type Result struct {
	Changes []Change
}

// Changed reports whether the store was mutated.
func (r Result) Changed() bool { return len(r.Changes) > 0 }

// Inserted returns the number of new records.
func (r Result) Inserted() int {
	n := 0
	for _, c := range r.Changes {
		if c.Inserted {
			n++
		}
	}
	return n
}

// Reconcile records obs into s given the match computed for the same window.
//
// With no match at all a wildcard record is created (plus an exact record
// when the title is blank). Otherwise every matched category is refreshed
// with the new geometry, an exact record is added for a non-blank title that
// had none, and a wildcard record is added when the process had none.
//
// A blank process name leaves the store untouched.
func Reconcile(s *Store, m Match, obs Observation) (Result, error) {
	var res Result
	if strings.TrimSpace(obs.Process) == "" {
		return res, nil
	}
	if !obs.Rect.Valid() {
		return res, fmt.Errorf("reconcile %s: %w %s", obs.Process, ErrInvalidRect, obs.Rect)
	}

	insert := func(c Category, title string) {
		stored := s.Insert(Record{
			Name:  obs.Process,
			Title: title,
			Rect:  obs.Rect,
			State: obs.State,
		})
		res.Changes = append(res.Changes, Change{Category: c, Inserted: true, Record: *stored})
	}
	update := func(c Category, r *Record) {
		r.Rect = obs.Rect
		r.State = obs.State
		res.Changes = append(res.Changes, Change{Category: c, Record: *r})
	}
	titleBlank := strings.TrimSpace(obs.Title) == ""

	if m.Empty() {
		insert(Wildcard, WildcardPattern)
		if titleBlank {
			insert(Exact, obs.Title)
		}
		return res, nil
	}

	if r, ok := m.Get(Exact); ok {
		update(Exact, r)
	} else if !titleBlank {
		insert(Exact, obs.Title)
	}
	if r, ok := m.Get(StartsWith); ok {
		update(StartsWith, r)
	}
	if r, ok := m.Get(EndsWith); ok {
		update(EndsWith, r)
	}
	if r, ok := m.Get(Wildcard); ok {
		update(Wildcard, r)
	} else {
		insert(Wildcard, WildcardPattern)
	}
	return res, nil
}
