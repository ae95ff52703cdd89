// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"prefindex/internal/build"
	"prefindex/internal/index"

	"github.com/spf13/cobra"
)

func newExportCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	srcFlags := &sourceFlagValues{}
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the index to stdout",
		Long: `Build the index in memory and print it in the chosen encoding.

JSON output matches the index file plus a final newline. YAML keeps the version
order of preferencesByVersion; TOML cannot, so only its versions array is
ordered.`,
		Example: `  prefindex export
  prefindex export --format toml > prefs.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := outputFormat(format)
			if err := f.validate(formatJSON, formatYAML, formatTOML); err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}

			s, err := app.resolve(cmd.Context(), rootFlags, srcFlags)
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			doc, _, err := build.Generate(cmd.Context(), s.build)
			if err != nil {
				return app.fail(cmd, err, s.verbose)
			}

			switch f {
			case formatYAML:
				err = index.WriteYAML(app.stdout, doc)
			case formatTOML:
				err = index.WriteTOML(app.stdout, doc)
			default:
				if err = index.WriteJSON(app.stdout, doc); err == nil {
					fmt.Fprintln(app.stdout)
				}
			}
			if err != nil {
				return app.fail(cmd, err, s.verbose)
			}
			return nil
		},
	}

	srcFlags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(formatJSON), "output format: json, yaml or toml")
	return cmd
}
