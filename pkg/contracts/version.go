package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version is the release of the pipeline and dashboard binaries
const Version = "1.0.0"

// DataFormatVersion tags the column layout of the master datasets. Bump it
// whenever a column in data/feature_engineered is renamed or removed.
const DataFormatVersion = "v1"

// APIVersion is the dashboard route prefix version
const APIVersion = "v1"

// Stamped by build.go through -ldflags "-X olistcli/pkg/contracts.BuildTime=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is reported by /healthz and printed by -version
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	Dirty        bool   `json:"dirty,omitempty"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo returns the build details. When the binary was built
// without ldflags, commit and time fall back to the VCS stamp the Go
// toolchain embeds.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		applyVCSSettings(&info, bi.Settings)
	}
	return info
}

func applyVCSSettings(info *VersionInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" && s.Value != "" {
				info.GitCommit = shortCommit(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "unknown" && s.Value != "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
}

func shortCommit(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// GetVersionString returns the product name and version
func GetVersionString() string {
	return fmt.Sprintf("Olist Analytics v%s", Version)
}

// String formats the info on one line, e.g.
// "Olist Analytics v1.0.0 (data v1, commit 3f2a..., go1.23.4 linux/amd64)"
func (v VersionInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olist Analytics v%s (data %s, commit %s", v.Version, v.DataFormat, v.GitCommit)
	if v.Dirty {
		b.WriteString("-dirty")
	}
	if v.BuildTime != "unknown" {
		fmt.Fprintf(&b, ", built %s", v.BuildTime)
	}
	fmt.Fprintf(&b, ", %s %s/%s)", v.GoVersion, v.OS, v.Architecture)
	return b.String()
}

// GetFullVersionString returns GetVersionInfo().String()
func GetFullVersionString() string {
	return GetVersionInfo().String()
}
