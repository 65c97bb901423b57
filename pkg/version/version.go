// Package version provides build version information.
package version

import "runtime"

// These are set via ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	DevBuild  bool
}

// Current returns the build of the running binary. The commit is cut to
// seven characters.
func Current() Build {
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Build{
		Version:   Version,
		Commit:    commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		DevBuild:  IsDevBuild(),
	}
}

// Short returns just the version number.
func Short() string {
	return Version
}
