package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set during build time
var (
	// Version is the current version
	Version = "0.0.0"

	// Revision is the short commit hash of source tree
	Revision = "unknown"

	// BuiltAt is the build time
	BuiltAt = "unknown"
)

// Info contains version information
type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	BuiltAt   string `json:"builtAt"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"goVersion"`
}

// GetVersionInfo returns version information. Values not set with ldflags
// are taken from the module build info when the binary carries it.
func GetVersionInfo() Info {
	info := Info{
		Version:   Version,
		Revision:  Revision,
		BuiltAt:   BuiltAt,
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "0.0.0" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Revision == "unknown" {
				info.Revision = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuiltAt == "unknown" {
				info.BuiltAt = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String returns a string representation of version information
func (i Info) String() string {
	revision := i.Revision
	if i.Modified {
		revision += " (modified)"
	}
	return fmt.Sprintf("Version: %s\nRevision: %s\nBuilt At: %s\nGo Version: %s",
		i.Version, revision, i.BuiltAt, i.GoVersion)
}

// JSON returns a JSON representation of version information
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
