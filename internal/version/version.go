// Package version carries the build-time identity of the engine binary.
package version

var (
	// BinaryName is the name reported in logs and --version output.
	BinaryName = "cluster-engine"
	// Version is overridden at build time via -ldflags.
	Version = "dev"
)
