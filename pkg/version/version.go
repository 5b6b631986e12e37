// Package version exposes the qpm build version.
package version

// Version is set at build time via -ldflags.
var Version = "dev" //nolint:gochecknoglobals // Injected by the build.

// GetVersion returns the qpm build version string.
func GetVersion() string {
	return Version
}
