// Package version holds the build metadata of the reqpin binary.
package version

import "runtime/debug"

const unknown = "unknown"

// Build metadata, set with -ldflags "-X ...". InitBinaryVersion fills the
// ones left empty from the module build info.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

const (
	settingRevision = "vcs.revision"
	settingTime     = "vcs.time"
	settingModified = "vcs.modified"

	shortCommitLen = 12
	devel          = "(devel)"
)

// InitBinaryVersion populates Version, Commit and Date from the embedded
// build info when they were not set at link time.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		fillUnknown()

		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "" && info.Main.Version != "" && info.Main.Version != devel {
		Version = info.Main.Version
	}

	modified := false

	for _, setting := range info.Settings {
		switch setting.Key {
		case settingRevision:
			if Commit == "" {
				Commit = setting.Value
				if len(Commit) > shortCommitLen {
					Commit = Commit[:shortCommitLen]
				}
			}
		case settingTime:
			if Date == "" {
				Date = setting.Value
			}
		case settingModified:
			modified = setting.Value == "true"
		}
	}

	if modified && Commit != "" {
		Commit += "-dirty"
	}

	fillUnknown()
}

func fillUnknown() {
	if Version == "" {
		Version = "dev"
	}

	if Commit == "" {
		Commit = unknown
	}

	if Date == "" {
		Date = unknown
	}
}

// String renders the metadata on one line.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
