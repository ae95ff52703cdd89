// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"prefindex/internal/build"
	"prefindex/internal/config"
	"prefindex/internal/issue"

	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and reads configuration through its provider.
	App struct {
		Config     config.Provider
		stdout     io.Writer
		stderr     io.Writer
		executable func() (string, error)
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		Stdout     io.Writer
		Stderr     io.Writer
		Executable func() (string, error)
	}

	// rootFlagValues holds the persistent flags shared by every command.
	rootFlagValues struct {
		configPath string
		verbose    bool
	}

	// sourceFlagValues holds the flags that select the source files and output.
	sourceFlagValues struct {
		dir     string
		out     string
		pattern string
	}

	// settings is the resolved view of flags over config over defaults.
	settings struct {
		config   *config.Config
		build    build.Options
		debounce time.Duration
		verbose  bool
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:     deps.Config,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		executable: deps.Executable,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.executable == nil {
		app.executable = os.Executable
	}
	return app
}

func (f *sourceFlagValues) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", "", "directory holding the preference dumps (default is the executable's directory)")
	cmd.Flags().StringVar(&f.out, "out", "", "index file path, relative to --dir unless absolute (default \""+build.DefaultOutputFile+"\")")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "glob selecting the dump files (default \"*.txt\")")
}

// resolve loads the configuration and layers the flags on top of it.
func (app *App) resolve(ctx context.Context, root *rootFlagValues, src *sourceFlagValues) (*settings, error) {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: root.configPath})
	if err != nil {
		return nil, err
	}

	dir := cfg.SourceDir
	if src.dir != "" {
		dir = src.dir
	}
	if dir == "" {
		dir, err = app.executableDir()
		if err != nil {
			return nil, err
		}
	}

	out := cfg.OutputFile
	if src.out != "" {
		out = src.out
	}
	pattern := string(cfg.SourcePattern)
	if src.pattern != "" {
		pattern = src.pattern
	}

	debounce, err := cfg.Watch.Debounce.Duration()
	if err != nil {
		return nil, err
	}

	verbose := root.verbose || cfg.UI.Verbose
	return &settings{
		config: cfg,
		build: build.Options{
			SourceDir:  dir,
			OutputPath: out,
			Pattern:    pattern,
			Metadata:   cfg.Metadata.IndexMetadata(),
			Logger:     app.newLogger(verbose),
		},
		debounce: debounce,
		verbose:  verbose,
	}, nil
}

// executableDir returns the directory holding the running binary.
func (app *App) executableDir() (string, error) {
	exe, err := app.executable()
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("locate the prefindex executable").
			WithIssue(issue.SourceDirNotFoundId).
			WithSuggestion("Pass --dir to point at the preference dumps").
			Wrap(err).
			BuildError()
	}
	if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func (app *App) newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(app.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// fail renders err on stderr, followed by the linked catalog entry, and
// converts it into an ExitError. Errors that reach fang as an ExitError are
// not printed again (see handleError).
func (app *App) fail(cmd *cobra.Command, err error, verbose bool) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
	app.renderIssueHelp(err)
	return &ExitError{Code: 1, Err: err}
}

// renderIssueHelp prints the issue catalog entry linked to err, if any.
func (app *App) renderIssueHelp(err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue == 0 {
		return
	}
	entry := issue.Get(ae.Issue)
	if entry == nil {
		return
	}

	rendered, renderErr := entry.Render(app.issueStyle())
	if renderErr != nil {
		app.newLogger(false).Warn("failed to render issue catalog entry", "issue", ae.Issue, "error", renderErr)
		return
	}
	fmt.Fprint(app.stderr, rendered)
}

// issueStyle picks the glamour style for help written to stderr.
func (app *App) issueStyle() string {
	if f, ok := app.stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return styles.DarkStyle
	}
	return styles.NoTTYStyle
}

// formatErrorForDisplay uses the ActionableError layout when available and
// shows the full chain in verbose mode.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
