// Package version holds build information stamped in by the linker; see
// magetasks.LDFlags.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String formats the build information for `structra version`. Binaries
// built with plain `go install` carry no ldflags, so the module version and
// VCS revision recorded by the toolchain fill in the blanks.
func String() string {
	v, commit := Version, CommitHash
	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && commit == "unknown" && len(s.Value) >= 7 {
				commit = s.Value[:7]
			}
		}
	}
	return fmt.Sprintf("structra %s (commit %s, built %s)", v, commit, BuildDate)
}
