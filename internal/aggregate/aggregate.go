// SPDX-License-Identifier: MPL-2.0

// Package aggregate accumulates parsed preference records across all source
// files of one build.
//
// A Table keeps two views of the same records: the per-version key→label
// map, where the last record for a key in a version wins, and a global label
// vote tally per key, where every record counts. The tally is kept in
// first-seen order so that ties in the vote resolve to the label observed
// first.
package aggregate

import "prefindex/internal/version"

type (
	// Record is one accepted line of one source file.
	Record struct {
		Version version.Tag
		Key     string
		Label   string
	}

	// Vote is the number of records that used Label for a key.
	Vote struct {
		Label string
		Count int
	}

	// Table is the mutable state of a single build. The zero value is not
	// usable; create tables with New.
	Table struct {
		versions []version.Tag
		entries  map[version.Tag]map[string]string
		votes    map[string][]Vote
		records  int
	}
)

// New creates an empty Table.
func New() *Table {
	return &Table{
		entries: make(map[version.Tag]map[string]string),
		votes:   make(map[string][]Vote),
	}
}

// Add records one line. The version's label for the key is overwritten and
// the label's vote for the key is incremented.
func (t *Table) Add(rec Record) {
	byKey, ok := t.entries[rec.Version]
	if !ok {
		byKey = make(map[string]string)
		t.entries[rec.Version] = byKey
		t.versions = append(t.versions, rec.Version)
	}
	byKey[rec.Key] = rec.Label

	t.vote(rec.Key, rec.Label)
	t.records++
}

func (t *Table) vote(key, label string) {
	tally := t.votes[key]
	for i := range tally {
		if tally[i].Label == label {
			tally[i].Count++
			return
		}
	}
	t.votes[key] = append(tally, Vote{Label: label, Count: 1})
}

// Versions returns the distinct versions in the order they were first seen.
func (t *Table) Versions() []version.Tag {
	out := make([]version.Tag, len(t.versions))
	copy(out, t.versions)
	return out
}

// Entries returns the key→label map recorded for a version. The map is owned
// by the table and must not be modified.
func (t *Table) Entries(v version.Tag) map[string]string {
	return t.entries[v]
}

// Votes returns a copy of the label tally for a key in first-seen order.
func (t *Table) Votes(key string) []Vote {
	tally := t.votes[key]
	out := make([]Vote, len(tally))
	copy(out, tally)
	return out
}

// Canonical returns the label with the most votes for key. Among labels tied
// for the highest count, the one seen first wins. The second result is false
// when the key was never recorded.
func (t *Table) Canonical(key string) (string, bool) {
	tally, ok := t.votes[key]
	if !ok || len(tally) == 0 {
		return "", false
	}

	best := tally[0]
	for _, v := range tally[1:] {
		if v.Count > best.Count {
			best = v
		}
	}
	return best.Label, true
}

// Len returns the number of records added.
func (t *Table) Len() int {
	return t.records
}
