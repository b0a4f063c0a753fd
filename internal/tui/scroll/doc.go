// Package scroll implements infinite scrolling over paginated list pages.
//
// A Binder is attached to the list container of a loaded page. Whenever the
// viewport comes within a fixed distance of the end of the list it requests
// the page behind the last next-page link, keeps only the content nodes of
// the response, drops the old pagination control and appends the new nodes.
// When a page has no next link the binder stops for good.
//
// At most one page request is in flight per binder. A failed request leaves
// the next link in place so the following scroll retries it.
package scroll
