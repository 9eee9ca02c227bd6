// Package buildinfo reports the version the binary was built from.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Populated at build time via -ldflags "-X". When installed with
// `go install module@version` they stay unset and are filled from
// runtime/debug.BuildInfo instead.
var (
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

type Info struct {
	Version string
	Commit  string
	Date    string
}

var readBuildInfo = debug.ReadBuildInfo

// Get returns the build metadata, falling back to module and VCS settings
// recorded by the Go toolchain.
func Get() Info {
	info := Info{Version: version, Commit: commit, Date: date}
	if info.Version != "dev" {
		return info
	}
	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		return info
	}
	if mv := bi.Main.Version; mv != "" && mv != "(devel)" {
		info.Version = mv
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
		case "vcs.time":
			info.Date = s.Value
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.Version, i.Commit, i.Date)
}
