package common

import (
	"fmt"
	"runtime/debug"
)

// Version information (set via -ldflags during build)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// GetVersion returns the version, falling back to the module version when
// the binary was installed with `go install` and no ldflags were given.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// GetFullVersion returns version with commit info
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s)", GetVersion(), GitCommit)
}
