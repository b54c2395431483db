// Package version exposes build metadata injected through ldflags:
//
//	-X 'github.com/compozy/o2a/pkg/version.Version=v0.1.0'
//	-X 'github.com/compozy/o2a/pkg/version.CommitHash=abc123'
package version

import "fmt"

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String formats the build metadata for --version output
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitHash, BuildDate)
}
