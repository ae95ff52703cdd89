// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"prefindex/internal/testutil"
)

func startWatcher(t *testing.T, cfg Config) (cancel func() error) {
	t.Helper()

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	var once sync.Once
	var runErr error
	cancel = func() error {
		once.Do(func() {
			stop()
			runErr = <-errCh
		})
		return runErr
	}
	t.Cleanup(func() { _ = cancel() })
	return cancel
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	testutil.WriteFiles(t, dir, map[string]string{name: "'Show Grid','grid.show'\n"})
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	done := make(chan struct{})

	cancel := startWatcher(t, Config{
		Dir:      dir,
		Pattern:  "*.txt",
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			if calls == 1 {
				close(done)
			}
			return nil
		},
	})

	for _, name := range []string{"5.4-prefs.txt", "5.5-prefs.txt", "5.6-prefs.txt"} {
		writeFile(t, dir, name)
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(200 * time.Millisecond)

	if err := cancel(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("expected 1 debounced callback, got %d", calls)
	}
	for _, want := range []string{"5.4-prefs.txt", "5.5-prefs.txt", "5.6-prefs.txt"} {
		if !slices.Contains(collected, want) {
			t.Errorf("expected %q in changed files, got %v", want, collected)
		}
	}
	if !slices.IsSorted(collected) {
		t.Errorf("changed files not sorted: %v", collected)
	}
}

func TestWatcherPatternAndIgnores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fired := make(chan []string, 10)

	startWatcher(t, Config{
		Dir:      dir,
		Pattern:  "*.txt",
		Ignore:   []string{"skip-*.txt"},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			fired <- changed
			return nil
		},
	})

	writeFile(t, dir, "atak-preferences.json")
	writeFile(t, dir, "skip-me.txt")
	writeFile(t, dir, ".hidden.txt")
	writeFile(t, dir, "notes.txt~")

	select {
	case changed := <-fired:
		t.Fatalf("callback fired for non-matching files: %v", changed)
	case <-time.After(300 * time.Millisecond):
	}

	writeFile(t, dir, "5.5-prefs.txt")

	select {
	case changed := <-fired:
		if !slices.Equal(changed, []string{"5.5-prefs.txt"}) {
			t.Errorf("changed = %v, want [5.5-prefs.txt]", changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func TestWatcherSkipIfBusy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		active  atomic.Int32
		overlap atomic.Bool
		calls   atomic.Int32
	)
	first := make(chan struct{})
	release := make(chan struct{})
	second := make(chan struct{}, 1)

	startWatcher(t, Config{
		Dir:      dir,
		Debounce: 30 * time.Millisecond,
		OnChange: func(_ context.Context, _ []string) error {
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			defer active.Add(-1)

			switch calls.Add(1) {
			case 1:
				close(first)
				<-release
			default:
				select {
				case second <- struct{}{}:
				default:
				}
			}
			return nil
		},
	})

	writeFile(t, dir, "5.4-prefs.txt")
	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first callback")
	}

	// A change while the first rebuild blocks is deferred, not dropped.
	writeFile(t, dir, "5.5-prefs.txt")
	time.Sleep(150 * time.Millisecond)
	close(release)

	select {
	case <-second:
	case <-time.After(5 * time.Second):
		t.Fatal("deferred change never rebuilt")
	}
	if overlap.Load() {
		t.Error("callbacks overlapped")
	}
}

func TestWatcherCallbackErrorDoesNotStop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fired := make(chan struct{}, 10)

	cancel := startWatcher(t, Config{
		Dir:      dir,
		Debounce: 30 * time.Millisecond,
		OnChange: func(_ context.Context, _ []string) error {
			fired <- struct{}{}
			return errors.New("boom")
		},
	})

	for range 2 {
		writeFile(t, dir, "5.5-prefs.txt")
		select {
		case <-fired:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for callback")
		}
	}
	if err := cancel(); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestWatcherDoubleRunError(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	if err := w.Run(ctx); err == nil {
		t.Error("second Run() call should fail")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("first Run() error = %v, want nil", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "5.5-prefs.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     Config
		invalid bool
	}{
		{name: "empty dir", cfg: Config{}, invalid: true},
		{name: "bad pattern", cfg: Config{Dir: t.TempDir(), Pattern: "[txt"}, invalid: true},
		{name: "bad ignore", cfg: Config{Dir: t.TempDir(), Ignore: []string{"[x"}}, invalid: true},
		{name: "file instead of dir", cfg: Config{Dir: file}, invalid: true},
		{name: "missing dir", cfg: Config{Dir: filepath.Join(t.TempDir(), "missing")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.cfg)
			if err == nil {
				t.Fatal("New() should fail")
			}
			if got := errors.Is(err, ErrInvalidConfig); got != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalidConfig) = %v, want %v (err: %v)", got, tt.invalid, err)
			}
		})
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	got := DefaultIgnores()
	got[0] = "mutated"
	if DefaultIgnores()[0] == "mutated" {
		t.Error("DefaultIgnores() must return a copy")
	}

	for _, name := range []string{".DS_Store", "prefs.txt.swp", "prefs.txt~"} {
		if !matchesAny(DefaultIgnores(), name) {
			t.Errorf("%q should be ignored by default", name)
		}
	}
	if matchesAny(DefaultIgnores(), "5.5-prefs.txt") {
		t.Error("source files must not be ignored by default")
	}
}
