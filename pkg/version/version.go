// Package version exposes build information set through -ldflags.
package version

import "fmt"

//nolint:gochecknoglobals // Overwritten at link time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersion returns the release version, or "dev" for local builds.
func GetVersion() string {
	return version
}

// GetCommit returns the git commit the binary was built from.
func GetCommit() string {
	return commit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return date
}

// String formats all build information on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}
