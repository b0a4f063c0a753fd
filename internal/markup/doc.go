// Package markup interprets the HTML of list pages and detail fragments.
//
// A list page is expected to carry a list container with content nodes, a
// trailing paging link, an optional loader template and an optional modal
// shell. Selectors for all of these are configurable; DefaultSelectors matches
// the stock templates.
//
// Fragments loaded into the modal are sanitized with bluemonday and rendered
// to plain text lines for the terminal.
package markup
