// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"prefindex/internal/issue"
	"prefindex/internal/testutil"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.SourceDir != "" {
		t.Errorf("expected empty default source dir, got %q", cfg.SourceDir)
	}
	if cfg.OutputFile != "atak-preferences.json" {
		t.Errorf("expected default output file atak-preferences.json, got %q", cfg.OutputFile)
	}
	if cfg.SourcePattern != "*.txt" {
		t.Errorf("expected default source pattern *.txt, got %q", cfg.SourcePattern)
	}
	if cfg.Metadata.Source != "generated from docs/prefs/*.txt" {
		t.Errorf("unexpected default metadata source %q", cfg.Metadata.Source)
	}
	if cfg.Metadata.Description != "Normalized ATAK preferences with version lists (X.X)" {
		t.Errorf("unexpected default metadata description %q", cfg.Metadata.Description)
	}
	if cfg.UI.Verbose {
		t.Error("expected default verbose to be false")
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig() is invalid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only consulted on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}

func TestConfigDirOverride(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride("/custom/dir")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if dir != "/custom/dir" {
		t.Errorf("ConfigDir() = %s, want /custom/dir", dir)
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want defaults", path)
	}
	if cfg.OutputFile != DefaultOutputFile || cfg.Watch.Debounce != DefaultDebounce {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadFromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := writeConfig(t, dir, "config.cue", `
source_dir: "/srv/prefs"
source_pattern: "*-prefs.txt"
metadata: {
	description: "Custom description"
}
ui: verbose: true
watch: debounce: "2s"
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if cfg.SourceDir != "/srv/prefs" {
		t.Errorf("SourceDir = %q", cfg.SourceDir)
	}
	if cfg.SourcePattern != "*-prefs.txt" {
		t.Errorf("SourcePattern = %q", cfg.SourcePattern)
	}
	if cfg.OutputFile != DefaultOutputFile {
		t.Errorf("OutputFile = %q, want default", cfg.OutputFile)
	}
	if cfg.Metadata.Source != DefaultConfig().Metadata.Source {
		t.Errorf("Metadata.Source = %q, want default", cfg.Metadata.Source)
	}
	if cfg.Metadata.Description != "Custom description" {
		t.Errorf("Metadata.Description = %q", cfg.Metadata.Description)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
	if d, err := cfg.Watch.Debounce.Duration(); err != nil || d.String() != "2s" {
		t.Errorf("Watch.Debounce = %q (%v)", cfg.Watch.Debounce, err)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "custom.cue", `output_file: "index.json"`)
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.OutputFile != "index.json" {
		t.Errorf("OutputFile = %q, want index.json", cfg.OutputFile)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "syntax error", content: `source_dir: "unterminated`, wantErr: "load configuration"},
		{name: "unknown field", content: `colour: "red"`, wantErr: "load configuration"},
		{name: "wrong type", content: `ui: verbose: "yes"`, wantErr: "load configuration"},
		{name: "empty output", content: `output_file: ""`, wantErr: "load configuration"},
		{name: "bad debounce", content: `watch: debounce: "soon"`, wantErr: "load configuration"},
		{name: "zero debounce", content: `watch: debounce: "0s"`, wantErr: "validate configuration"},
		{name: "bad pattern", content: `source_pattern: "[txt"`, wantErr: "validate configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, t.TempDir(), "config.cue", tt.content)
			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() should fail")
			}

			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("Load() error = %T, want *issue.ActionableError", err)
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %d, want ConfigLoadFailedId", ae.Issue)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadErrorNamesField(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "config.cue", `watch: debounce: "soon"`)
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err == nil {
		t.Fatal("Load() should fail")
	}
	if !strings.Contains(err.Error(), "config.cue: watch.debounce: ") {
		t.Errorf("error %q does not name the field", err)
	}
	if strings.Contains(err.Error(), "#Config") {
		t.Errorf("error %q leaks the schema definition name", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue"),
	})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v, want config file not found", err)
	}
}

func TestLoadCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SourceDir = "/data/prefs"
	cfg.UI.Verbose = true
	cfg.Watch.Debounce = "750ms"

	path := writeConfig(t, t.TempDir(), "config.cue", GenerateCUE(cfg))
	loaded, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load(GenerateCUE()) error: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip = %+v, want %+v", loaded, cfg)
	}
}

func TestGenerateCUEDefaultsLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "config.cue", GenerateCUE(DefaultConfig()))
	loaded, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load(GenerateCUE(defaults)) error: %v", err)
	}
	if *loaded != *DefaultConfig() {
		t.Errorf("round trip = %+v, want defaults", loaded)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Cleanup(Reset)
	dir := filepath.Join(t.TempDir(), "nested")
	SetConfigDirOverride(dir)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error: %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	if err := os.WriteFile(path, []byte(`output_file: "kept.json"`), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second CreateDefaultConfig() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `output_file: "kept.json"` {
		t.Errorf("existing config was overwritten: %q", data)
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if got, err := ResolvePath(LoadOptions{ConfigDirPath: dir}); err != nil || got != "" {
		t.Errorf("ResolvePath() = %q, %v; want empty", got, err)
	}

	want := writeConfig(t, dir, "config.cue", "")
	if got, err := ResolvePath(LoadOptions{ConfigDirPath: dir}); err != nil || got != want {
		t.Errorf("ResolvePath() = %q, %v; want %q", got, err, want)
	}

	if got, _ := ResolvePath(LoadOptions{ConfigFilePath: "x.cue"}); got != "x.cue" {
		t.Errorf("ResolvePath(explicit) = %q", got)
	}
}

func TestLoadLocalConfigFile(t *testing.T) {
	// Not parallel: changes the process working directory.
	workDir := t.TempDir()
	writeConfig(t, workDir, LocalConfigFileName, `output_file: "local.json"`)
	t.Cleanup(testutil.MustChdir(t, workDir))

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != LocalConfigFileName {
		t.Errorf("resolved path = %q, want %q", path, LocalConfigFileName)
	}
	if cfg.OutputFile != "local.json" {
		t.Errorf("OutputFile = %q, want local.json", cfg.OutputFile)
	}
}
