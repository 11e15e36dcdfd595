// Package version carries build metadata injected through -ldflags.
package version

import "fmt"

// Build metadata. Overridden at link time, e.g.
// -X github.com/Sumatoshi-tech/codebridge/pkg/version.Version=v1.2.0.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the metadata the way the version command prints it.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
