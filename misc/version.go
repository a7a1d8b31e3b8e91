// Package misc keeps program identity in a single place.
package misc

import (
	"runtime/debug"
)

const appName = "csscov"

// set by the linker: -X csscov/misc.version=... -X csscov/misc.gitHash=...
var (
	version = "dev"
	gitHash = ""
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

// GetGitHash returns commit hash the binary was built from, falling back to
// VCS information recorded by the go tool.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
