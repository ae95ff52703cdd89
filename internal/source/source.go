// SPDX-License-Identifier: MPL-2.0

// Package source locates preference dump files and reads their lines.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// DefaultPattern selects the files read from the source directory.
const DefaultPattern = "*.txt"

// ErrInvalidPattern is returned when a source pattern is not a valid glob.
var ErrInvalidPattern = errors.New("invalid source pattern")

// File is a source file selected for a build.
type File struct {
	// Name is the base name of the file.
	Name string
	// Path is the file path joined from the source directory and Name.
	Path string
}

// Discover lists the regular files directly inside dir whose base name
// matches pattern, in the order the directory is enumerated (sorted by name).
// Hidden files are never selected. An empty pattern means DefaultPattern.
func Discover(dir, pattern string) ([]File, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []File
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if matched, _ := doublestar.Match(pattern, name); !matched {
			continue
		}
		path := filepath.Join(dir, name)
		if !isRegular(de, path) {
			continue
		}
		files = append(files, File{Name: name, Path: path})
	}
	return files, nil
}

// isRegular reports whether de is a regular file, following symlinks.
func isRegular(de os.DirEntry, path string) bool {
	if de.Type()&os.ModeSymlink == 0 {
		return de.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ReadLines reads the whole file and returns its lines with surrounding
// whitespace removed. Ill-formed UTF-8 sequences are dropped rather than
// reported. Lines may end in "\n", "\r\n" or "\r".
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	data, err := io.ReadAll(transform.NewReader(f, dropIllFormed()))
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}

	return SplitLines(string(data)), nil
}

// SplitLines splits text on universal line endings and trims each line.
// A trailing line ending does not produce a final empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// dropIllFormed replaces every ill-formed byte sequence with U+FFFD and then
// removes the replacement characters.
func dropIllFormed() transform.Transformer {
	return transform.Chain(
		runes.ReplaceIllFormed(),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return r == utf8.RuneError
		})),
	)
}
