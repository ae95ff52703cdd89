// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidFormat is returned for an unsupported --format value.
var ErrInvalidFormat = errors.New("invalid output format")

// outputFormat names an encoding accepted by --format.
type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
	formatTOML outputFormat = "toml"
)

// InvalidFormatError reports a --format value outside the allowed set.
type InvalidFormatError struct {
	Value   outputFormat
	Allowed []outputFormat
}

func (e *InvalidFormatError) Error() string {
	names := make([]string, len(e.Allowed))
	for i, f := range e.Allowed {
		names[i] = string(f)
	}
	return fmt.Sprintf("invalid format %q (expected one of: %s)", e.Value, strings.Join(names, ", "))
}

func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// validate returns an InvalidFormatError unless f is one of allowed.
func (f outputFormat) validate(allowed ...outputFormat) error {
	if slices.Contains(allowed, f) {
		return nil
	}
	return &InvalidFormatError{Value: f, Allowed: allowed}
}
