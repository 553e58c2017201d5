// Package version exposes the build version.
package version

// value is overridden at build time via -ldflags.
var value = "v0.1.0-dev"

// Value returns the build version string.
func Value() string {
	return value
}
