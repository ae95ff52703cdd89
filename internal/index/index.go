// SPDX-License-Identifier: MPL-2.0

package index

import (
	"cmp"
	"slices"
	"strings"

	"prefindex/internal/aggregate"
	"prefindex/internal/version"
)

const (
	// DefaultMetadataSource is the metadata source string used when none is configured.
	DefaultMetadataSource = "generated from docs/prefs/*.txt"
	// DefaultMetadataDescription is the metadata description used when none is configured.
	DefaultMetadataDescription = "Normalized ATAK preferences with version lists (X.X)"
)

type (
	// Entry is a preference as it appears in a version list.
	Entry struct {
		Key   string `json:"key" yaml:"key" toml:"key"`
		Label string `json:"label" yaml:"label" toml:"label"`
	}

	// IndexEntry is one key of the reverse index with the versions carrying it,
	// newest first.
	IndexEntry struct {
		Key      string   `json:"key" yaml:"key" toml:"key"`
		Label    string   `json:"label" yaml:"label" toml:"label"`
		Versions []string `json:"versions" yaml:"versions" toml:"versions"`
	}

	// Metadata is the static descriptive block of the document.
	Metadata struct {
		Source      string `json:"source" yaml:"source" toml:"source"`
		Description string `json:"description" yaml:"description" toml:"description"`
	}

	// VersionList holds the sorted preferences of one version.
	VersionList struct {
		Version string
		Entries []Entry
	}

	// VersionLists is an ordered version→entries mapping. It encodes as a JSON
	// or YAML object whose keys keep the slice order.
	VersionLists []VersionList

	// Document is the full output of a build.
	Document struct {
		Versions             []string     `json:"versions" yaml:"versions"`
		PreferencesByVersion VersionLists `json:"preferencesByVersion" yaml:"preferencesByVersion"`
		PreferenceIndex      []IndexEntry `json:"preferenceIndex" yaml:"preferenceIndex"`
		Metadata             Metadata     `json:"metadata" yaml:"metadata"`
	}

	// Stats summarizes a document.
	Stats struct {
		Versions int
		Keys     int
		Entries  int
	}
)

// DefaultMetadata returns the metadata block written when configuration does
// not override it.
func DefaultMetadata() Metadata {
	return Metadata{
		Source:      DefaultMetadataSource,
		Description: DefaultMetadataDescription,
	}
}

// Build assembles the document from the records collected in tbl.
func Build(tbl *aggregate.Table, meta Metadata) *Document {
	tags := tbl.Versions()
	version.SortDescending(tags)

	doc := &Document{
		Versions:             make([]string, 0, len(tags)),
		PreferencesByVersion: make(VersionLists, 0, len(tags)),
		PreferenceIndex:      []IndexEntry{},
		Metadata:             meta,
	}

	keyVersions := make(map[string][]version.Tag)
	var keyOrder []string

	for _, tag := range tags {
		raw := tbl.Entries(tag)
		entries := make([]Entry, 0, len(raw))
		for key, label := range raw {
			if canonical, ok := tbl.Canonical(key); ok {
				label = canonical
			}
			entries = append(entries, Entry{Key: key, Label: label})
		}
		slices.SortFunc(entries, func(a, b Entry) int {
			return compareLabelKey(a.Label, a.Key, b.Label, b.Key)
		})

		doc.Versions = append(doc.Versions, tag.String())
		doc.PreferencesByVersion = append(doc.PreferencesByVersion, VersionList{
			Version: tag.String(),
			Entries: entries,
		})

		for _, e := range entries {
			if _, seen := keyVersions[e.Key]; !seen {
				keyOrder = append(keyOrder, e.Key)
			}
			keyVersions[e.Key] = append(keyVersions[e.Key], tag)
		}
	}

	for _, key := range keyOrder {
		label, ok := tbl.Canonical(key)
		if !ok {
			label = key
		}
		doc.PreferenceIndex = append(doc.PreferenceIndex, IndexEntry{
			Key:      key,
			Label:    label,
			Versions: descendingUnique(keyVersions[key]),
		})
	}
	slices.SortFunc(doc.PreferenceIndex, func(a, b IndexEntry) int {
		return compareLabelKey(a.Label, a.Key, b.Label, b.Key)
	})

	return doc
}

// Lookup returns the reverse index entry for key.
func (d *Document) Lookup(key string) (IndexEntry, bool) {
	for _, e := range d.PreferenceIndex {
		if e.Key == key {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// Stats counts versions, distinct keys and version list entries.
func (d *Document) Stats() Stats {
	s := Stats{Versions: len(d.Versions), Keys: len(d.PreferenceIndex)}
	for _, vl := range d.PreferencesByVersion {
		s.Entries += len(vl.Entries)
	}
	return s
}

// Get returns the entries of one version.
func (l VersionLists) Get(ver string) ([]Entry, bool) {
	for _, vl := range l {
		if vl.Version == ver {
			return vl.Entries, true
		}
	}
	return nil, false
}

// compareLabelKey orders by case-insensitive label, then key.
func compareLabelKey(labelA, keyA, labelB, keyB string) int {
	return cmp.Or(
		strings.Compare(strings.ToLower(labelA), strings.ToLower(labelB)),
		strings.Compare(keyA, keyB),
	)
}

func descendingUnique(tags []version.Tag) []string {
	seen := make(map[version.Tag]struct{}, len(tags))
	unique := make([]version.Tag, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		unique = append(unique, tag)
	}
	version.SortDescending(unique)

	out := make([]string, 0, len(unique))
	for _, tag := range unique {
		out = append(out, tag.String())
	}
	return out
}
