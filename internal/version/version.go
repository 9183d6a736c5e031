// Package version exposes the build-time version string.
package version

// value is overridden at build time via
// -ldflags "-X github.com/mdekker/sonarlens/internal/version.value=vX.Y.Z".
var value = "dev"

// Value returns the version string.
func Value() string {
	return value
}
