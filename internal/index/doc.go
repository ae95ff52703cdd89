// SPDX-License-Identifier: MPL-2.0

// Package index builds the consolidated preference document from an
// aggregate.Table.
//
// The document lists every version newest first, the preferences known to
// each version, and a reverse index from each key to the versions that carry
// it. Every label in the document is the canonical label chosen by the
// table's vote, so a key reads the same in every list it appears in.
package index
