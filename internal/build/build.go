// SPDX-License-Identifier: MPL-2.0

// Package build runs one prefindex pass: it reads every source file, parses
// and aggregates its lines, builds the index document and writes it out.
//
// Bad input never fails a build. Lines that do not match the pair grammar,
// pairs with an empty side and undecodable bytes are skipped; only a missing
// source directory, an unreadable file or an unwritable output abort the run.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"prefindex/internal/aggregate"
	"prefindex/internal/index"
	"prefindex/internal/issue"
	"prefindex/internal/lineparse"
	"prefindex/internal/source"
	"prefindex/internal/version"

	"github.com/charmbracelet/log"
)

// DefaultOutputFile is the index file name written into the source directory.
const DefaultOutputFile = "atak-preferences.json"

var (
	// ErrSourceDirNotFound is returned when the source directory does not exist.
	ErrSourceDirNotFound = errors.New("source directory not found")
	// ErrOutputWrite is returned when the index cannot be written.
	ErrOutputWrite = errors.New("output not writable")
)

type (
	// Options configures a build.
	Options struct {
		// SourceDir holds the preference dumps.
		SourceDir string
		// OutputPath is the index file. Relative paths resolve against SourceDir.
		OutputPath string
		// Pattern selects source files by name; empty means source.DefaultPattern.
		Pattern string
		// Metadata is copied into the document.
		Metadata index.Metadata
		// Logger receives per-file debug lines and the run summary. Nil discards.
		Logger *log.Logger
	}

	// Summary counts what a build consumed.
	Summary struct {
		// Files is the number of source files read.
		Files int
		// Lines is the number of lines seen across all files.
		Lines int
		// Records is the number of accepted pairs.
		Records int
		// Skipped is the number of non-empty, non-comment lines rejected by the parser.
		Skipped int
	}

	// Result is the outcome of Run.
	Result struct {
		Document   *index.Document
		OutputPath string
		Summary    Summary
	}
)

// Run builds the document and writes it to the output path, replacing any
// previous file.
func Run(ctx context.Context, opts Options) (*Result, error) {
	doc, summary, err := Generate(ctx, opts)
	if err != nil {
		return nil, err
	}

	outPath := OutputPath(opts)
	if err := writeDocument(outPath, doc); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("write index").
			WithResource(outPath).
			WithIssue(issue.OutputWriteFailedId).
			WithSuggestion("Check that the output directory exists and is writable").
			WithSuggestion("Use --out to choose another location").
			Wrap(fmt.Errorf("%w: %w", ErrOutputWrite, err)).
			BuildError()
	}

	stats := doc.Stats()
	logger(opts).Debug("index written",
		"path", outPath,
		"files", summary.Files,
		"versions", stats.Versions,
		"keys", stats.Keys,
		"entries", stats.Entries)

	return &Result{Document: doc, OutputPath: outPath, Summary: summary}, nil
}

// Generate builds the document in memory without writing it.
func Generate(ctx context.Context, opts Options) (*index.Document, Summary, error) {
	tbl, summary, err := Collect(ctx, opts)
	if err != nil {
		return nil, Summary{}, err
	}
	return index.Build(tbl, opts.Metadata), summary, nil
}

// Collect reads and aggregates all source files in directory order.
func Collect(ctx context.Context, opts Options) (*aggregate.Table, Summary, error) {
	lg := logger(opts)

	files, err := source.Discover(opts.SourceDir, opts.Pattern)
	if err != nil {
		return nil, Summary{}, discoverError(opts, err)
	}

	tbl := aggregate.New()
	var summary Summary
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, Summary{}, fmt.Errorf("build canceled: %w", err)
		}

		lines, err := source.ReadLines(f.Path)
		if err != nil {
			return nil, Summary{}, issue.NewErrorContext().
				WithOperation("read source file").
				WithResource(f.Path).
				WithIssue(issue.SourceReadFailedId).
				WithSuggestion("Check the file permissions").
				Wrap(err).
				BuildError()
		}

		tag := version.FromFileName(f.Name)
		counts := ingest(tbl, tag, lines)
		lg.Debug("read source",
			"file", f.Name,
			"version", tag.String(),
			"lines", counts.Lines,
			"records", counts.Records,
			"skipped", counts.Skipped)

		summary.Files++
		summary.Lines += counts.Lines
		summary.Records += counts.Records
		summary.Skipped += counts.Skipped
	}

	if len(files) == 0 {
		lg.Warn("no source files found", "dir", opts.SourceDir, "pattern", pattern(opts))
	}
	return tbl, summary, nil
}

// OutputPath resolves the index path for opts.
func OutputPath(opts Options) string {
	out := opts.OutputPath
	if out == "" {
		out = DefaultOutputFile
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(opts.SourceDir, out)
}

// ingest adds the pairs of one file to tbl.
func ingest(tbl *aggregate.Table, tag version.Tag, lines []string) Summary {
	s := Summary{Files: 1, Lines: len(lines)}
	for _, line := range lines {
		if lineparse.Skip(line) {
			continue
		}
		pair, ok := lineparse.Parse(line)
		if !ok {
			s.Skipped++
			continue
		}
		tbl.Add(aggregate.Record{Version: tag, Key: pair.Key, Label: pair.Label})
		s.Records++
	}
	return s
}

func writeDocument(path string, doc *index.Document) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return index.WriteJSON(f, doc)
}

func discoverError(opts Options, err error) error {
	ctx := issue.NewErrorContext().WithResource(opts.SourceDir)
	switch {
	case errors.Is(err, source.ErrInvalidPattern):
		ctx.WithOperation("select source files").
			WithIssue(issue.InvalidPatternId).
			WithSuggestion("Use a doublestar glob such as \"*.txt\"")
	case errors.Is(err, fs.ErrNotExist):
		ctx.WithOperation("read source directory").
			WithIssue(issue.SourceDirNotFoundId).
			WithSuggestion("Pass --dir to point at the preference dumps").
			WithSuggestion("Set source_dir in the configuration file")
		err = fmt.Errorf("%w: %w", ErrSourceDirNotFound, err)
	default:
		ctx.WithOperation("read source directory").
			WithIssue(issue.SourceDirNotFoundId).
			WithSuggestion("Check that the path is a readable directory")
	}
	return ctx.Wrap(err).BuildError()
}

func pattern(opts Options) string {
	if opts.Pattern == "" {
		return source.DefaultPattern
	}
	return opts.Pattern
}

func logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return log.New(io.Discard)
}
