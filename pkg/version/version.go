// Package version provides build and version information for mindmap.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current version of mindmap. Set via ldflags at build
// time, or defaults to dev.
var Version = "dev"

// Commit is the git commit hash, set via ldflags at build time.
var Commit = "unknown"

// Date is the build date in RFC3339 format, set via ldflags at build time.
var Date = "unknown"

// String returns a formatted version string with all build info.
func String() string {
	return fmt.Sprintf("mindmap %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, runtime.Version())
}
