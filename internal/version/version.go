// SPDX-License-Identifier: MPL-2.0

package version

import (
	"cmp"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// defaultMinor is used when the version fragment carries a single digit run.
const defaultMinor = "0"

// digitRun matches decimal digits of any script, such as "5" or "٥".
var digitRun = regexp.MustCompile(`\p{Nd}+`)

// Tag is a normalized release tag. The zero value is an unparsed tag with an
// empty raw text.
//
// Components are kept as canonical decimal strings (no leading zeros) so that
// arbitrarily long digit runs compare numerically without overflow. Tag is
// comparable and can be used as a map key: two fragments that normalize to
// the same major.minor produce equal tags.
type Tag struct {
	major string
	minor string
	raw   string
}

// Parse normalizes a raw version fragment such as "5.4.0" or "v4.8.1".
// The first digit run is the major component, the second the minor component
// (defaulting to 0) and any further runs are ignored. A fragment without
// digits yields an unparsed tag whose String is the fragment itself.
func Parse(raw string) Tag {
	runs := digitRun.FindAllString(raw, 2)
	if len(runs) == 0 {
		return Tag{raw: raw}
	}

	t := Tag{major: canonicalDigits(runs[0]), minor: defaultMinor}
	if len(runs) > 1 {
		t.minor = canonicalDigits(runs[1])
	}
	return t
}

// FromFileName resolves the tag for a source file path.
func FromFileName(name string) Tag {
	return Parse(Fragment(name))
}

// Fragment returns the part of a file name that carries its version: the
// file stem (base name without its final extension) up to the first hyphen.
//
//	Fragment("docs/5.4.0-prefs.txt") == "5.4.0"
//	Fragment("5.5.txt")              == "5.5"
func Fragment(name string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	before, _, _ := strings.Cut(stem, "-")
	return before
}

// Parsed reports whether the tag was built from at least one digit run.
func (t Tag) Parsed() bool {
	return t.major != ""
}

// Major returns the canonical major component, or "" for unparsed tags.
func (t Tag) Major() string {
	return t.major
}

// Minor returns the canonical minor component, or "" for unparsed tags.
func (t Tag) Minor() string {
	return t.minor
}

// String returns "major.minor" for parsed tags and the raw fragment otherwise.
func (t Tag) String() string {
	if !t.Parsed() {
		return t.raw
	}
	return t.major + "." + t.minor
}

// Compare orders tags from oldest to newest. Parsed tags compare numerically
// by (major, minor). Unparsed tags order before every parsed tag, and among
// themselves by raw text, so a descending sort lists them last.
func Compare(a, b Tag) int {
	switch {
	case a.Parsed() && b.Parsed():
		if c := compareDigits(a.major, b.major); c != 0 {
			return c
		}
		return compareDigits(a.minor, b.minor)
	case a.Parsed():
		return 1
	case b.Parsed():
		return -1
	default:
		return strings.Compare(a.raw, b.raw)
	}
}

// SortDescending sorts tags newest first in place.
func SortDescending(tags []Tag) {
	slices.SortFunc(tags, func(a, b Tag) int {
		return Compare(b, a)
	})
}

// compareDigits compares two canonical decimal strings numerically.
func compareDigits(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// canonicalDigits converts run to ASCII digits and strips leading zeros the
// way integer parsing would.
func canonicalDigits(run string) string {
	var b strings.Builder
	b.Grow(len(run))
	for _, r := range run {
		b.WriteByte('0' + digitValue(r))
	}
	trimmed := strings.TrimLeft(b.String(), "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// digitValue returns the value of a decimal digit. Decimal digits are
// allocated in contiguous runs of ten starting at zero, so the offset into
// the enclosing range of the Nd table gives the value.
func digitValue(r rune) byte {
	if r >= '0' && r <= '9' {
		return byte(r - '0')
	}
	for _, rng := range unicode.Nd.R16 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return byte((r - lo) % 10)
		}
	}
	for _, rng := range unicode.Nd.R32 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return byte((r - lo) % 10)
		}
	}
	return 0
}
