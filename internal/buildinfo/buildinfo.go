// Package buildinfo holds the version and commit of confkit binaries.
// Both are set at link-time:
//
//	go build -ldflags "-X github.com/lc/confkit/internal/buildinfo.Version=v0.3.0 \
//	  -X github.com/lc/confkit/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "fmt"

// Version is set at link-time with –ldflags.
var Version = "v0.3.0"

// Commit is set at link-time with –ldflags.
// Default is "unknown" so tests and "go run ." still work.
var Commit = "unknown"

// String returns "version (commit)".
func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
