// SPDX-License-Identifier: MPL-2.0

// Package version derives normalized "major.minor" release tags from the
// names of preference dump files.
//
// A file such as "5.4.0-prefs.txt" resolves to the tag "5.4": the stem before
// the first hyphen is scanned for digit runs, the first two runs become the
// major and minor components, and anything after them is dropped. Names
// without any digits resolve to an unparsed tag that carries the raw text.
package version
