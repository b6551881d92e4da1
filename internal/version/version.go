// Package version holds build identification, overridden at link time with
// -ldflags "-X".
package version

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns a single-line build description.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
