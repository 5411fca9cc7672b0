// Package build carries the release metadata stamped into the splashgen
// binary. Release builds set it with:
//
//	-ldflags "-X github.com/joestump/splashgen/internal/build.Version=v1.2.0 -X ...Commit=... -X ...Branch=..."
package build

import "fmt"

// Unstamped builds report these values.
var (
	Version = "dev"
	Commit  = "unknown"
	Branch  = "unknown"
)

// String is the one-line build description printed by `splashgen version`
// and logged at startup.
func String() string {
	return fmt.Sprintf("splashgen %s (commit %s, branch %s)", Version, Commit, Branch)
}
