// SPDX-License-Identifier: MPL-2.0

package issue

import "github.com/charmbracelet/glamour"

// Id identifies a catalog entry.
type Id int

const (
	SourceDirNotFoundId Id = iota + 1
	SourceReadFailedId
	OutputWriteFailedId
	ConfigLoadFailedId
	KeyNotFoundId
	InvalidPatternId
)

type (
	MarkdownMsg string

	// Issue is a catalog entry with markdown help for one failure class.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
		// docLinks point at related documentation; rendered under "See also".
		docLinks []string
	}
)

// Render renders the help text with the named glamour style ("dark",
// "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- " + link + "\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	issues = map[Id]*Issue{
		SourceDirNotFoundId: {
			id: SourceDirNotFoundId,
			mdMsg: `
# Source directory not found

prefindex reads preference dumps (for example ` + "`5.5-prefs.txt`" + `) from one
directory. By default that is the directory holding the prefindex binary.

## Things you can try
- Point at the dumps explicitly:
~~~
$ prefindex --dir ./docs/prefs
~~~
- Or set ` + "`source_dir`" + ` in your config file:
~~~
$ prefindex config init
~~~`,
		},
		SourceReadFailedId: {
			id: SourceReadFailedId,
			mdMsg: `
# A source file could not be read

Undecodable bytes and malformed lines are skipped silently, so this error
means the file itself could not be opened or read.

## Things you can try
- Check the file permissions
- Make sure the file is not a dangling symlink`,
		},
		OutputWriteFailedId: {
			id: OutputWriteFailedId,
			mdMsg: `
# The index could not be written

The output file is replaced on every run.

## Things you can try
- Check that the output directory exists and is writable
- Choose another location:
~~~
$ prefindex --out /tmp/atak-preferences.json
~~~`,
		},
		ConfigLoadFailedId: {
			id: ConfigLoadFailedId,
			mdMsg: `
# Failed to load configuration

The configuration file is CUE and is validated against the built-in schema.

## Things you can try
- Print the effective defaults as CUE:
~~~
$ prefindex config dump
~~~
- Show where prefindex looks for the file:
~~~
$ prefindex config path
~~~`,
		},
		KeyNotFoundId: {
			id: KeyNotFoundId,
			mdMsg: `
# Preference key not found

No source file in any version defines this key. Keys are matched exactly and
are case sensitive.

## Things you can try
- List all keys with their versions:
~~~
$ prefindex export --format yaml
~~~`,
		},
		InvalidPatternId: {
			id: InvalidPatternId,
			mdMsg: `
# Invalid source pattern

Source patterns use doublestar glob syntax and are matched against file names
in the source directory, for example ` + "`*.txt`" + ` or ` + "`*-{prefs,preferences}.txt`" + `.`,
			docLinks: []string{"https://github.com/bmatcuk/doublestar#patterns"},
		},
	}
)

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
