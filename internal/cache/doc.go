// Package cache provides a file-based TTL cache for fetched HTML fragments.
//
// Entries are stored as JSON files named by the SHA256 of the fragment URL in
// the user's xdg cache directory. The cache is opt-in: detail fragments and
// list pages are usually expected to be fresh, but a short TTL makes
// re-opening the same item instant while browsing.
package cache
