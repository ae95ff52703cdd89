// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"prefindex/internal/build"
	"prefindex/internal/index"
	"prefindex/internal/issue"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newQueryCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	srcFlags := &sourceFlagValues{}
	var format string

	cmd := &cobra.Command{
		Use:   "query <key>",
		Short: "Show the canonical label and versions of a preference key",
		Long: `Build the index in memory and print one preference key.

The index file is not written. The command exits with status 1 when no
source file contains the key.`,
		Example: `  prefindex query gps.enabled
  prefindex query gps.enabled --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := outputFormat(format)
			if err := f.validate(formatText, formatJSON, formatYAML); err != nil {
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

			key := strings.TrimSpace(args[0])
			entry, ok := doc.Lookup(key)
			if !ok {
				notFound := issue.NewErrorContext().
					WithOperation("find preference key").
					WithResource(key).
					WithIssue(issue.KeyNotFoundId).
					WithSuggestion("Keys are case-sensitive; check the spelling").
					WithSuggestion("Run 'prefindex export' to list every key").
					Wrap(fmt.Errorf("no source file in %s contains it", s.build.SourceDir)).
					BuildError()
				return app.fail(cmd, notFound, s.verbose)
			}

			if err := writeEntry(app.stdout, entry, f); err != nil {
				return app.fail(cmd, err, s.verbose)
			}
			return nil
		},
	}

	srcFlags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(formatText), "output format: text, json or yaml")
	return cmd
}

func writeEntry(w io.Writer, entry index.IndexEntry, f outputFormat) error {
	switch f {
	case formatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	case formatYAML:
		out, err := yaml.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		fmt.Fprintf(w, "%s  %s\n", KeyStyle.Render(entry.Key), entry.Label)
		fmt.Fprintf(w, "  versions: %s\n", versionStyle.Render(strings.Join(entry.Versions, ", ")))
		return nil
	}
}
