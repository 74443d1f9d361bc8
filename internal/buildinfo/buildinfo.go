// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import "fmt"

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/harvard-gems/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/harvard-gems/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/garyellow/harvard-gems/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release returns the release identifier reported to error tracking,
// e.g. "harvard-gems@v1.2.0" or "harvard-gems@dev".
func Release() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	return "harvard-gems@" + v
}

// String returns a one-line description for startup logs and -version.
func String() string {
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("%s (commit %s, built %s)", Release(), orUnknown(commit), orUnknown(BuildDate))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
