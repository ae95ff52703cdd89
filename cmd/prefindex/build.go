// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"prefindex/internal/build"
	"prefindex/internal/watch"

	"github.com/spf13/cobra"
)

// buildFlagValues holds the flags of the build command and of the bare root.
type buildFlagValues struct {
	sourceFlagValues
	watch    bool
	debounce time.Duration
}

func (f *buildFlagValues) register(cmd *cobra.Command) {
	f.sourceFlagValues.register(cmd)
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "rebuild whenever a source file changes")
	cmd.Flags().DurationVar(&f.debounce, "debounce", 0, "quiet period before a watch rebuild (default from config, 500ms)")
}

func newBuildCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	buildFlags := &buildFlagValues{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the preference index (default command)",
		Long: `Build the preference index.

Every matching dump in the source directory is read, its lines parsed as
'label','key' pairs and the result written as JSON. Malformed lines are
skipped. The output replaces any previous index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, app, rootFlags, buildFlags)
		},
	}
	buildFlags.register(cmd)
	return cmd
}

func runBuild(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, buildFlags *buildFlagValues) error {
	s, err := app.resolve(cmd.Context(), rootFlags, &buildFlags.sourceFlagValues)
	if err != nil {
		return app.fail(cmd, err, rootFlags.verbose)
	}

	if err := buildOnce(cmd.Context(), app, s); err != nil {
		if !buildFlags.watch {
			return app.fail(cmd, err, s.verbose)
		}
		// The user may fix the dumps and save again.
		fmt.Fprintln(app.stderr, WarningStyle.Render("Build failed: ")+formatErrorForDisplay(err, s.verbose))
	}

	if !buildFlags.watch {
		return nil
	}
	if buildFlags.debounce > 0 {
		s.debounce = buildFlags.debounce
	}
	if err := runWatch(cmd.Context(), app, s); err != nil {
		return app.fail(cmd, err, s.verbose)
	}
	return nil
}

// buildOnce runs one build and prints the confirmation line.
func buildOnce(ctx context.Context, app *App, s *settings) error {
	res, err := build.Run(ctx, s.build)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "Wrote %s\n", res.OutputPath)
	return nil
}

// runWatch rebuilds on every settled change until ctx is cancelled.
func runWatch(ctx context.Context, app *App, s *settings) error {
	w, err := watch.New(watch.Config{
		Dir:      s.build.SourceDir,
		Pattern:  s.build.Pattern,
		Ignore:   []string{filepath.Base(build.OutputPath(s.build))},
		Debounce: s.debounce,
		Logger:   s.build.Logger,
		OnChange: func(ctx context.Context, changed []string) error {
			s.build.Logger.Info("rebuilding", "changed", len(changed))
			return buildOnce(ctx, app, s)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return w.Run(ctx)
}
