// Package version carries build identification for the diffcalc binaries,
// stamped via -ldflags at release time.
package version

var (
	// Version is the diffcalc release version
	Version = "dev"
	// GitSHA is the git commit SHA of the build
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
