// Package version exposes build metadata injected via ldflags:
//
//	go build -ldflags "-X github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/version.Version=1.0.0 \
//	  -X github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "0.0.0-dev"
	Commit  = "unknown"
	Date    = "unknown"
	// Dirty is "true" when the tree had uncommitted changes at build time.
	Dirty = "false"
)

// Info is the build metadata reported by /health and the X-API-Version header.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Dirty     bool   `json:"dirty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current build info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		Dirty:     Dirty == "true",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	commit := i.Commit
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s) built %s", i.Version, commit, i.Date)
}

// Short returns the version alone, suffixed with -dirty when applicable.
func (i Info) Short() string {
	if i.Dirty {
		return i.Version + "-dirty"
	}
	return i.Version
}

// UserAgent is sent on outbound calls to synthesis and payment providers.
func (i Info) UserAgent() string {
	return "nexlevel-speech/" + i.Short()
}
