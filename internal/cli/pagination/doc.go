// Package pagination provides the page and item limits of the dump command.
//
// The dump command follows next-page links headlessly. This package decides
// when to stop following them and how to slice and sort the collected items:
//   - Params: CLI flag parsing and validation (--max-pages, --limit, --offset, --sort)
//   - Meta: summary of a dump run, emitted with JSON output
//   - EntrySorter: stable sorting of list entries by a named field
package pagination
