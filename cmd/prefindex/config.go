// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"prefindex/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `prefindex config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage prefindex configuration",
		Long: `Manage prefindex configuration.

Configuration is read from the first file found:
  - the --config flag
  - Linux: ~/.config/prefindex/config.cue
  - macOS: ~/Library/Application Support/prefindex/config.cue
  - Windows: %APPDATA%\prefindex\config.cue
  - ./prefindex.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := showConfig(cmd.Context(), app, rootFlags); err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := showConfigPath(app.stdout, rootFlags); err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: rootFlags.configPath})
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, rootFlags *rootFlagValues) error {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return err
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil || path == "" {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(w)

	sourceDir := cfg.SourceDir
	if sourceDir == "" {
		sourceDir = SubtitleStyle.Render("(executable directory)")
	} else {
		sourceDir = SuccessStyle.Render(sourceDir)
	}
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("source_dir"), sourceDir)
	showValue(w, "output_file", cfg.OutputFile)
	showValue(w, "source_pattern", string(cfg.SourcePattern))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("metadata"))
	fmt.Fprintf(w, "  source: %s\n", SuccessStyle.Render(cfg.Metadata.Source))
	fmt.Fprintf(w, "  description: %s\n", SuccessStyle.Render(cfg.Metadata.Description))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", SuccessStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("watch"))
	fmt.Fprintf(w, "  debounce: %s\n", SuccessStyle.Render(string(cfg.Watch.Debounce)))
	return nil
}

func showValue(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(key), SuccessStyle.Render(value))
}

func showConfigPath(w io.Writer, rootFlags *rootFlagValues) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(w, "Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))

	active, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err == nil && active != "" {
		fmt.Fprintf(w, "Active file: %s\n", active)
	}
	return nil
}
