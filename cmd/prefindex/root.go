// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the prefindex command tree. Running the root command
// without a subcommand performs a build.
func NewRootCommand(app *App) *cobra.Command {
	rootFlags := &rootFlagValues{}
	buildFlags := &buildFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "prefindex",
		Short: "Build a versioned index of ATAK preference keys",
		Long: TitleStyle.Render("prefindex") + SubtitleStyle.Render(" - versioned ATAK preference index") + `

prefindex reads ATAK preference dumps named after the release they came from
(for example 5.4.0-prefs.txt), normalizes the version tags, and writes a
JSON index listing each preference key, its canonical label and the versions
that contain it.

` + SubtitleStyle.Render("Examples:") + `
  prefindex                      Build next to the executable
  prefindex --dir ./prefs        Build from ./prefs
  prefindex --watch              Rebuild whenever a dump changes
  prefindex query gps.enabled    Show one key
  prefindex export --format yaml Print the index as YAML
  prefindex report               Summarize the index`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, app, rootFlags, buildFlags)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/prefindex/config.cue)")
	buildFlags.register(rootCmd)

	rootCmd.AddCommand(newBuildCommand(app, rootFlags))
	rootCmd.AddCommand(newQueryCommand(app, rootFlags))
	rootCmd.AddCommand(newExportCommand(app, rootFlags))
	rootCmd.AddCommand(newReportCommand(app, rootFlags))
	rootCmd.AddCommand(newConfigCommand(app, rootFlags))

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the command's status. It is called by
// main.main.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// handleError is the fang error handler. Commands render their own failures
// and return them as ExitError, so only errors raised by cobra itself, such
// as unknown flags, are printed here.
func handleError(w io.Writer, st fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, st, err)
}
