package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time via -ldflags "-X github.com/milan604/permcatalog/pkg/version.Version=...".
var (
	// Version is the semantic version of the build. Defaults to "dev".
	Version = "dev"
	// Commit is the short git commit hash. Falls back to the VCS stamp of the binary.
	Commit = ""
	// Date is the build timestamp in RFC3339.
	Date = ""
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
	Go      string `json:"go"`
}

// Info returns the build metadata, filling commit and date from the Go
// build stamp when they were not set through ldflags.
func Info() BuildInfo {
	info := BuildInfo{Version: Version, Commit: Commit, Date: Date, Go: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "":
				info.Commit = shortRevision(s.Value)
			case s.Key == "vcs.time" && info.Date == "":
				info.Date = s.Value
			}
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func (b BuildInfo) String() string {
	s := "permcatalog " + b.Version
	if b.Commit != "" {
		s += fmt.Sprintf(" (%s)", b.Commit)
	}
	if b.Date != "" {
		s += " built " + b.Date
	}
	return s + " " + b.Go
}
