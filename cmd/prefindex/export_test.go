// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func TestExportJSONMatchesIndexFile(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "", "export", "--dir", scenarioDir(t))
	if res.err != nil {
		t.Fatalf("export error: %v\n%s", res.err, res.stderr)
	}
	if diff := cmp.Diff(scenarioJSON+"\n", res.stdout); diff != "" {
		t.Errorf("export mismatch (-want +got):\n%s", diff)
	}
}

func TestExportYAML(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "", "export", "--dir", scenarioDir(t), "--format", "yaml")
	if res.err != nil {
		t.Fatalf("export error: %v\n%s", res.err, res.stderr)
	}

	var got struct {
		Versions []string `yaml:"versions"`
	}
	if err := yaml.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, res.stdout)
	}
	if diff := cmp.Diff([]string{"5.5", "5.4"}, got.Versions); diff != "" {
		t.Errorf("versions mismatch (-want +got):\n%s", diff)
	}
	if strings.Index(res.stdout, `"5.5":`) > strings.Index(res.stdout, `"5.4":`) {
		t.Errorf("preferencesByVersion out of order:\n%s", res.stdout)
	}
}

func TestExportTOML(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "", "export", "--dir", scenarioDir(t), "--format", "toml")
	if res.err != nil {
		t.Fatalf("export error: %v\n%s", res.err, res.stderr)
	}

	var got map[string]any
	if err := toml.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, res.stdout)
	}
	if diff := cmp.Diff([]any{"5.5", "5.4"}, got["versions"]); diff != "" {
		t.Errorf("versions mismatch (-want +got):\n%s", diff)
	}
	byVersion, ok := got["preferencesByVersion"].(map[string]any)
	if !ok || len(byVersion) != 2 {
		t.Errorf("preferencesByVersion = %#v", got["preferencesByVersion"])
	}
}

func TestExportRejectsText(t *testing.T) {
	t.Parallel()

	res := runCLI(t, nil, "", "export", "--dir", scenarioDir(t), "--format", "text")
	var formatErr *InvalidFormatError
	if !errors.As(res.err, &formatErr) {
		t.Fatalf("error = %v, want *InvalidFormatError", res.err)
	}
	if !strings.Contains(res.stderr, "json, yaml, toml") {
		t.Errorf("stderr should list allowed formats:\n%s", res.stderr)
	}
}
