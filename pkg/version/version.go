// Package version exposes the rigup build version.
package version

// version is overridden at build time via:
//
//	go build -ldflags "-X github.com/rigup-dev/rigup/pkg/version.version=v1.2.3"
//
//nolint:gochecknoglobals // Set by the linker.
var version = "dev"

// GetVersion returns the version of the running rigup binary.
func GetVersion() string {
	return version
}
