// Package version reports the build identity of the partexpand binary.
package version

import (
	"runtime/debug"
	"sync"
)

const unknown = "unknown"

// Build metadata, overridable via -ldflags "-X".
var (
	// Version is the release tag, e.g. "v0.3.1".
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = unknown
	// Date is the build or commit timestamp.
	Date = unknown
)

var initOnce sync.Once

// InitBinaryVersion fills unset metadata from the module build info
// embedded by the Go toolchain. Safe to call more than once.
func InitBinaryVersion() {
	initOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}

		apply(info)
	})
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String returns the one-line version banner.
func String() string {
	return "partexpand " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
