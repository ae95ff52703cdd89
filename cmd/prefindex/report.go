// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"prefindex/internal/build"
	"prefindex/internal/index"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newReportCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	srcFlags := &sourceFlagValues{}
	var (
		style string
		raw   bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the index as a rendered markdown report",
		Long: `Build the index in memory and print a summary: the versions found with
their entry counts, and the keys present in every version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.resolve(cmd.Context(), rootFlags, srcFlags)
			if err != nil {
				return app.fail(cmd, err, rootFlags.verbose)
			}
			doc, summary, err := build.Generate(cmd.Context(), s.build)
			if err != nil {
				return app.fail(cmd, err, s.verbose)
			}

			md := reportMarkdown(doc, s.build.SourceDir, summary)
			if raw {
				fmt.Fprint(app.stdout, md)
				return nil
			}
			rendered, err := glamour.Render(md, style)
			if err != nil {
				return app.fail(cmd, fmt.Errorf("render report: %w", err), s.verbose)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}

	srcFlags.register(cmd)
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style: dark, light, notty, ...")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown without rendering")
	return cmd
}

// reportMarkdown renders the summary of doc as markdown.
func reportMarkdown(doc *index.Document, dir string, summary build.Summary) string {
	var sb strings.Builder
	stats := doc.Stats()

	sb.WriteString("# Preference index\n\n")
	fmt.Fprintf(&sb, "Source directory: `%s`\n\n", dir)
	fmt.Fprintf(&sb, "- Files read: %d\n", summary.Files)
	fmt.Fprintf(&sb, "- Lines skipped: %d\n", summary.Skipped)
	fmt.Fprintf(&sb, "- Versions: %d\n", stats.Versions)
	fmt.Fprintf(&sb, "- Keys: %d\n", stats.Keys)
	fmt.Fprintf(&sb, "- Entries: %d\n", stats.Entries)

	if len(doc.PreferencesByVersion) == 0 {
		sb.WriteString("\nNo source files found.\n")
		return sb.String()
	}

	sb.WriteString("\n## Versions\n\n")
	sb.WriteString("| Version | Entries |\n")
	sb.WriteString("|---|---|\n")
	for _, vl := range doc.PreferencesByVersion {
		fmt.Fprintf(&sb, "| %s | %d |\n", vl.Version, len(vl.Entries))
	}

	var common []index.IndexEntry
	for _, e := range doc.PreferenceIndex {
		if len(e.Versions) == len(doc.Versions) {
			common = append(common, e)
		}
	}
	fmt.Fprintf(&sb, "\n## Keys in every version (%d)\n\n", len(common))
	if len(common) == 0 {
		sb.WriteString("None.\n")
	}
	for _, e := range common {
		fmt.Fprintf(&sb, "- `%s`: %s\n", e.Key, e.Label)
	}
	return sb.String()
}
