// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles CUE input against an embedded schema and decodes
// the unified value into Go types.
package cueutil

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// ErrFileTooLarge is returned when the input exceeds the configured limit.
var ErrFileTooLarge = errors.New("cue input too large")

// Result is a decoded value together with the unified CUE value it came from.
type Result[T any] struct {
	Value   T
	Unified cue.Value
}

// ParseAndDecode compiles data, unifies it with the definition at defPath in
// schema, validates the result and decodes it into T.
func ParseAndDecode[T any](schema, data []byte, defPath string, opts ...Option) (*Result[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.maxFileSize > 0 && int64(len(data)) > o.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, exceeds maximum of %d", ErrFileTooLarge, o.label(), len(data), o.maxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("internal error: compile schema: %w", err)
	}
	def := schemaValue.LookupPath(cue.ParsePath(defPath))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("internal error: schema has no %s: %w", defPath, err)
	}

	var compileOpts []cue.BuildOption
	if o.filename != "" {
		compileOpts = append(compileOpts, cue.Filename(o.filename))
	}
	userValue := ctx.CompileBytes(data, compileOpts...)
	if err := userValue.Err(); err != nil {
		return nil, FormatError(err, o.label())
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, o.label())
	}

	var value T
	if err := unified.Decode(&value); err != nil {
		return nil, FormatError(err, o.label())
	}
	return &Result[T]{Value: value, Unified: unified}, nil
}

// ParseAndDecodeString is ParseAndDecode with the schema given as a string.
func ParseAndDecodeString[T any](schema string, data []byte, defPath string, opts ...Option) (*Result[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, defPath, opts...)
}

// FormatError flattens CUE errors into "<file>: <path>: <message>" lines
// joined by "; ". Leading definition selectors such as "#Config" are dropped
// from the path so that it names the field as written in the input.
func FormatError(err error, filename string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if fieldPath := fieldPath(cueerrors.Path(e)); fieldPath != "" {
			msg = fieldPath + ": " + msg
		}
		lines = append(lines, msg)
	}
	return fmt.Errorf("%s: %s", filename, strings.Join(lines, "; "))
}

// fieldPath joins a CUE error path after removing leading definitions.
func fieldPath(path []string) string {
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	return strings.Join(path, ".")
}

func (o parseOptions) label() string {
	if o.filename == "" {
		return "<input>"
	}
	return o.filename
}
