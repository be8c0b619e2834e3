// Package version provides information about the build version of the binary.
package version

// BuildInfo holds version information about the build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information. The version, commit, and date variables
// are intended to be set at build time using -ldflags.
func Info() BuildInfo {
	// Set via -ldflags "-X 'quickbuild/internal/core/version.version=v0.1.0'
	// -X 'quickbuild/internal/core/version.commit=abcd' -X 'quickbuild/internal/core/version.date=2026-10-18'"
	return BuildInfo{
		Service: "quickbuild-runs",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders the info on one line for --version
func (b BuildInfo) String() string {
	return b.Version + " (" + b.Commit + ", " + b.Date + ")"
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
