// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"prefindex/internal/build"
	"prefindex/internal/index"
	"prefindex/internal/source"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultOutputFile is the index file name, relative to the source directory.
	DefaultOutputFile = build.DefaultOutputFile
	// DefaultDebounce is the quiet period before a watch-mode rebuild.
	DefaultDebounce DebounceDuration = "500ms"
)

var (
	// ErrInvalidSourcePattern is the sentinel error wrapped by InvalidSourcePatternError.
	ErrInvalidSourcePattern = errors.New("invalid source pattern")
	// ErrInvalidDebounce is the sentinel error wrapped by InvalidDebounceError.
	ErrInvalidDebounce = errors.New("invalid watch debounce")
	// ErrInvalidOutputFile is returned when output_file is whitespace-only.
	ErrInvalidOutputFile = errors.New("invalid output file")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// SourcePattern is a doublestar glob matched against file names in the
	// source directory.
	SourcePattern string

	// InvalidSourcePatternError is returned when a SourcePattern is not a valid
	// glob. It wraps ErrInvalidSourcePattern for errors.Is() compatibility.
	InvalidSourcePatternError struct {
		Value SourcePattern
	}

	// DebounceDuration is a time.ParseDuration string such as "250ms".
	DebounceDuration string

	// InvalidDebounceError is returned when a DebounceDuration does not parse
	// or is not positive.
	InvalidDebounceError struct {
		Value DebounceDuration
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the full prefindex configuration.
	Config struct {
		// SourceDir holds the preference dumps. Empty means the directory of
		// the prefindex executable.
		SourceDir string `json:"source_dir" mapstructure:"source_dir"`
		// OutputFile is the index path; relative paths resolve against SourceDir.
		OutputFile string `json:"output_file" mapstructure:"output_file"`
		// SourcePattern selects the dump files.
		SourcePattern SourcePattern `json:"source_pattern" mapstructure:"source_pattern"`
		// Metadata is copied verbatim into the index.
		Metadata MetadataConfig `json:"metadata" mapstructure:"metadata"`
		// UI configures console output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Watch configures --watch mode.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
	}

	// MetadataConfig holds the static metadata strings of the index.
	MetadataConfig struct {
		Source      string `json:"source" mapstructure:"source"`
		Description string `json:"description" mapstructure:"description"`
	}

	// UIConfig configures console output.
	UIConfig struct {
		// Verbose enables debug logging and full error chains.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// WatchConfig configures rebuild-on-change.
	WatchConfig struct {
		Debounce DebounceDuration `json:"debounce" mapstructure:"debounce"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	meta := index.DefaultMetadata()
	return &Config{
		SourceDir:     "",
		OutputFile:    DefaultOutputFile,
		SourcePattern: source.DefaultPattern,
		Metadata: MetadataConfig{
			Source:      meta.Source,
			Description: meta.Description,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
	}
}

// IndexMetadata converts the metadata block for index.Build.
func (c MetadataConfig) IndexMetadata() index.Metadata {
	return index.Metadata{Source: c.Source, Description: c.Description}
}

// IsValid returns whether the pattern compiles as a doublestar glob.
func (p SourcePattern) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" || !doublestar.ValidatePattern(string(p)) {
		return false, []error{&InvalidSourcePatternError{Value: p}}
	}
	return true, nil
}

// String returns the pattern text.
func (p SourcePattern) String() string { return string(p) }

// Error implements the error interface for InvalidSourcePatternError.
func (e *InvalidSourcePatternError) Error() string {
	return fmt.Sprintf("invalid source pattern %q", e.Value)
}

// Unwrap returns ErrInvalidSourcePattern for errors.Is() compatibility.
func (e *InvalidSourcePatternError) Unwrap() error { return ErrInvalidSourcePattern }

// Duration parses the value. The zero value parses as DefaultDebounce.
func (d DebounceDuration) Duration() (time.Duration, error) {
	if d == "" {
		d = DefaultDebounce
	}
	dur, err := time.ParseDuration(string(d))
	if err != nil || dur <= 0 {
		return 0, &InvalidDebounceError{Value: d}
	}
	return dur, nil
}

// IsValid returns whether the value parses as a positive duration.
func (d DebounceDuration) IsValid() (bool, []error) {
	if _, err := d.Duration(); err != nil {
		return false, []error{err}
	}
	return true, nil
}

// Error implements the error interface for InvalidDebounceError.
func (e *InvalidDebounceError) Error() string {
	return fmt.Sprintf("invalid watch debounce %q (want a positive duration such as \"500ms\")", e.Value)
}

// Unwrap returns ErrInvalidDebounce for errors.Is() compatibility.
func (e *InvalidDebounceError) Unwrap() error { return ErrInvalidDebounce }

// IsValid validates every field that CUE cannot check on its own.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.OutputFile) == "" {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidOutputFile, c.OutputFile))
	}
	if valid, fieldErrs := c.SourcePattern.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Watch.Debounce.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
