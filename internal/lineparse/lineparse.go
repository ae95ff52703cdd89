// SPDX-License-Identifier: MPL-2.0

// Package lineparse recognizes quoted preference pairs in dump files and
// decides which side of a pair is the machine key.
//
// Source files mix the 'Label','key' and 'key','Label' orders, so the
// classification is heuristic and applied in a fixed priority:
//
//  1. a field made only of key characters wins over one that is not;
//  2. otherwise the field with strictly fewer spaces is the key;
//  3. otherwise the second field is the key.
package lineparse

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// commentPrefix marks a line that is ignored even if it matches the grammar.
	commentPrefix = "#"

	// space matches Unicode whitespace, including no-break and em spaces and
	// the ASCII information separators.
	space = `[\s\p{Z}\x{85}\x{1c}-\x{1f}]`
)

var (
	pairPattern  = regexp.MustCompile(`^` + space + `*'([^']+)'` + space + `*,` + space + `*'([^']+)'` + space + `*$`)
	keyCharacter = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// Pair is one classified line.
type Pair struct {
	Key   string
	Label string
}

// Skip reports whether a trimmed line carries no data: it is empty or a
// comment.
func Skip(line string) bool {
	return line == "" || strings.HasPrefix(line, commentPrefix)
}

// Parse matches a single trimmed line against the two-field grammar and
// classifies the fields. It returns false for lines that do not match or
// whose key or label is empty after trimming.
func Parse(line string) (Pair, bool) {
	m := pairPattern.FindStringSubmatch(line)
	if m == nil {
		return Pair{}, false
	}

	p := Classify(strings.TrimFunc(m[1], isSpace), strings.TrimFunc(m[2], isSpace))
	if p.Key == "" || p.Label == "" {
		return Pair{}, false
	}
	return p, true
}

// Classify assigns the key and label roles to two already trimmed fields.
func Classify(first, second string) Pair {
	firstKey, secondKey := IsKeyShaped(first), IsKeyShaped(second)
	switch {
	case firstKey && !secondKey:
		return Pair{Key: first, Label: second}
	case secondKey && !firstKey:
		return Pair{Key: second, Label: first}
	}

	firstSpaces, secondSpaces := strings.Count(first, " "), strings.Count(second, " ")
	switch {
	case firstSpaces < secondSpaces:
		return Pair{Key: first, Label: second}
	case secondSpaces < firstSpaces:
		return Pair{Key: second, Label: first}
	}

	// Most dumps are written as 'Label','key'.
	return Pair{Key: second, Label: first}
}

// IsKeyShaped reports whether s is non-empty and made only of ASCII letters,
// digits, underscore, dot and hyphen.
func IsKeyShaped(s string) bool {
	return keyCharacter.MatchString(s)
}

// isSpace reports whether r is whitespace in the same sense as the space
// class of pairPattern.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || unicode.Is(unicode.Z, r) || (r >= 0x1c && r <= 0x1f)
}
