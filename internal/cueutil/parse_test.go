// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Settings: close({
	name:         string
	count:        int & >=0
	enabled?:     bool
	description?: string
})
`

type testSettings struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		want    testSettings
		wantErr string
	}{
		{
			name: "all fields",
			data: "name: \"a\"\ncount: 2\nenabled: true\ndescription: \"d\"\n",
			want: testSettings{Name: "a", Count: 2, Enabled: true, Description: "d"},
		},
		{
			name: "optional fields omitted",
			data: "name: \"a\"\ncount: 0\n",
			want: testSettings{Name: "a"},
		},
		{
			name:    "wrong type",
			data:    "name: \"a\"\ncount: \"x\"\n",
			opts:    []Option{WithFilename("settings.cue")},
			wantErr: "settings.cue: count",
		},
		{
			name:    "constraint violated",
			data:    "name: \"a\"\ncount: -1\n",
			wantErr: "count",
		},
		{
			name:    "closed struct rejects unknown field",
			data:    "name: \"a\"\ncount: 1\nextra: 1\n",
			wantErr: "extra",
		},
		{
			name:    "syntax error",
			data:    "name: {",
			wantErr: "<input>",
		},
		{
			name:    "missing required field when concrete",
			data:    "count: 1\n",
			wantErr: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := ParseAndDecodeString[testSettings](testSchema, []byte(tt.data), "#Settings", tt.opts...)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAndDecode() error: %v", err)
			}
			if res.Value != tt.want {
				t.Errorf("Value = %+v, want %+v", res.Value, tt.want)
			}
			if res.Unified.Err() != nil {
				t.Errorf("unified value has error: %v", res.Unified.Err())
			}
		})
	}
}

func TestParseAndDecodeNonConcrete(t *testing.T) {
	t.Parallel()

	res, err := ParseAndDecodeString[map[string]any](testSchema, []byte("name: \"a\"\ncount: 3\n"), "#Settings", WithConcrete(false))
	if err != nil {
		t.Fatalf("ParseAndDecode() error: %v", err)
	}
	if _, ok := res.Value["enabled"]; ok {
		t.Errorf("unset field decoded: %v", res.Value)
	}
}

func TestFileSizeLimit(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat("a", 200))
	_, err := ParseAndDecodeString[testSettings](testSchema, data, "#Settings", WithMaxFileSize(100))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("error = %v, want ErrFileTooLarge", err)
	}
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("error should mention the limit, got: %v", err)
	}
}

func TestMissingDefinition(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecodeString[testSettings](testSchema, []byte(`name: "a"`), "#Nope")
	if err == nil || !strings.Contains(err.Error(), "#Nope") {
		t.Errorf("error = %v, want missing definition", err)
	}
}

func TestFormatErrorDropsDefinitionSelector(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecodeString[testSettings](testSchema, []byte("name: \"a\"\ncount: -1\n"), "#Settings",
		WithFilename("settings.cue"))
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.HasPrefix(err.Error(), "settings.cue: count: ") {
		t.Errorf("error = %q, want it to start with %q", err, "settings.cue: count: ")
	}
	if strings.Contains(err.Error(), "#Settings") {
		t.Errorf("error %q leaks the schema definition name", err)
	}
}

func TestFieldPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{path: nil, want: ""},
		{path: []string{"#Config"}, want: ""},
		{path: []string{"#Config", "watch", "debounce"}, want: "watch.debounce"},
		{path: []string{"#A", "#B", "name"}, want: "name"},
		{path: []string{"ui", "verbose"}, want: "ui.verbose"},
	}

	for _, tt := range tests {
		if got := fieldPath(tt.path); got != tt.want {
			t.Errorf("fieldPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
