// SPDX-License-Identifier: MPL-2.0

// Package watch rebuilds on source changes.
//
// A Watcher monitors one source directory and invokes a callback once the
// directory has been quiet for a debounce period. Events inside the window
// are coalesced so the callback fires once with every changed file name.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is zero or negative.
const DefaultDebounce = 500 * time.Millisecond

var (
	// ErrInvalidConfig is returned by New when the Config fails validation.
	ErrInvalidConfig = errors.New("invalid watch config")

	// defaultIgnores are base-name globs that never trigger a rebuild: editor
	// swap and backup files plus OS metadata.
	defaultIgnores = []string{
		".*",
		"*.swp",
		"*.swo",
		"*~",
		"*.tmp",
	}
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the source directory. Only its direct children are watched.
		Dir string

		// Pattern selects the file names that trigger a rebuild. Empty
		// matches every non-ignored name.
		Pattern string

		// Ignore lists extra base-name globs that never trigger a rebuild,
		// typically the index file written into Dir.
		Ignore []string

		// Debounce is the quiet period before OnChange fires.
		Debounce time.Duration

		// Logger receives watcher diagnostics. Nil discards them.
		Logger *log.Logger

		// OnChange receives the sorted, deduplicated names of changed files.
		OnChange func(ctx context.Context, changed []string) error
	}

	// Watcher monitors a source directory. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		dir      string
		started  atomic.Bool
	}
)

// IsValid reports whether the Config can build a Watcher.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: directory is empty", ErrInvalidConfig))
	}
	if c.Pattern != "" && !doublestar.ValidatePattern(c.Pattern) {
		errs = append(errs, fmt.Errorf("%w: invalid pattern %q", ErrInvalidConfig, c.Pattern))
	}
	for _, pat := range c.Ignore {
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("%w: invalid ignore pattern %q", ErrInvalidConfig, pat))
		}
	}
	return len(errs) == 0, errs
}

// New validates cfg and registers cfg.Dir with the OS watcher.
func New(cfg Config) (*Watcher, error) {
	if ok, errs := cfg.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidConfig, dir)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("watch: add directory %q: %w", dir, err)
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	return &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  ignores,
		logger:   logger,
		debounce: debounce,
		dir:      dir,
	}, nil
}

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the OS watcher breaks.
// Callbacks never overlap: a burst that settles while one is running is
// retried after another debounce period.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("rebuild still running, deferring")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("rebuild failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()

	w.logger.Info("watching for changes", "dir", w.dir, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(evt.Name)
			if !w.triggers(name) {
				continue
			}

			w.logger.Debug("source changed", "file", name, "op", evt.Op.String())
			mu.Lock()
			pending[name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// triggers reports whether a change to the base name should queue a rebuild.
func (w *Watcher) triggers(name string) bool {
	if matchesAny(w.ignores, name) {
		return false
	}
	if w.cfg.Pattern == "" {
		return true
	}
	matched, err := doublestar.Match(w.cfg.Pattern, name)
	return err == nil && matched
}

// DefaultIgnores returns a copy of the built-in ignore globs.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

func matchesAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, name); err == nil && matched {
			return true
		}
	}
	return false
}
