// SPDX-License-Identifier: MPL-2.0

package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// jsonIndent is the per-level indentation of the written document.
const jsonIndent = "  "

// MarshalJSON encodes the lists as an object keyed by version, in slice order.
func (l VersionLists) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, vl := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSON(vl.Version)
		if err != nil {
			return nil, err
		}
		entries := vl.Entries
		if entries == nil {
			entries = []Entry{}
		}
		value, err := marshalJSON(entries)
		if err != nil {
			return nil, fmt.Errorf("encode version %q: %w", vl.Version, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a version-keyed object, keeping the key order.
func (l *VersionLists) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("preferencesByVersion: expected object, got %v", tok)
	}

	lists := VersionLists{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		ver, ok := tok.(string)
		if !ok {
			return fmt.Errorf("preferencesByVersion: expected version key, got %v", tok)
		}
		var entries []Entry
		if err := dec.Decode(&entries); err != nil {
			return fmt.Errorf("preferencesByVersion[%q]: %w", ver, err)
		}
		if entries == nil {
			entries = []Entry{}
		}
		lists = append(lists, VersionList{Version: ver, Entries: entries})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*l = lists
	return nil
}

// MarshalYAML encodes the lists as a mapping keyed by version, in slice order.
func (l VersionLists) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, vl := range l {
		entries := vl.Entries
		if entries == nil {
			entries = []Entry{}
		}
		var value yaml.Node
		if err := value.Encode(entries); err != nil {
			return nil, fmt.Errorf("encode version %q: %w", vl.Version, err)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: vl.Version}
		node.Content = append(node.Content, key, &value)
	}
	return node, nil
}

// WriteJSON writes doc as UTF-8 JSON indented by two spaces, without HTML
// escaping and without a trailing newline.
func WriteJSON(w io.Writer, doc *Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if _, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// ReadJSON decodes a document previously written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// WriteYAML writes doc as a YAML document with versions in index order.
func WriteYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return enc.Close()
}

// tomlDocument is the TOML shape of a Document. TOML tables have no key
// order, so the per-version lists become a map and only the versions array
// keeps the descending order.
type tomlDocument struct {
	Versions             []string           `toml:"versions"`
	PreferencesByVersion map[string][]Entry `toml:"preferencesByVersion"`
	PreferenceIndex      []IndexEntry       `toml:"preferenceIndex"`
	Metadata             Metadata           `toml:"metadata"`
}

// WriteTOML writes doc as a TOML document.
func WriteTOML(w io.Writer, doc *Document) error {
	td := tomlDocument{
		Versions:             doc.Versions,
		PreferencesByVersion: make(map[string][]Entry, len(doc.PreferencesByVersion)),
		PreferenceIndex:      doc.PreferenceIndex,
		Metadata:             doc.Metadata,
	}
	for _, vl := range doc.PreferencesByVersion {
		td.PreferencesByVersion[vl.Version] = vl.Entries
	}

	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(td); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
