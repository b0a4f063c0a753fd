// Package logging builds the zerolog loggers used across pageturn.
//
// The TUI owns the terminal while it runs, so the default configuration writes
// JSON lines to a file under the user's state directory. Each outbound fetch is
// tagged with a ULID request id carried on the context.
package logging
