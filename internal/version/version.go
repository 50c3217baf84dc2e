// Package version carries build metadata stamped in via -ldflags.
package version

var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String returns "version (sha)" for log lines and health reports.
func String() string {
	return Version + " (" + GitSHA + ")"
}
