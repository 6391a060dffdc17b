// Package version exposes build version information, including the linked
// BuildKit parser version, for the CLI's version command.
package version

import (
	"runtime"
	"runtime/debug"
)

// current is the release version, overridden at link time for tagged builds.
var current = "0.0.0-dev"

// Version returns the release version, suffixed with the linked BuildKit
// parser version when build info carries it.
func Version() string {
	if d := read(); d.buildkit != "" {
		return current + " (buildkit " + d.buildkit + ")"
	}
	return current
}

// buildDetails are the pieces of debug.BuildInfo the version command
// reports: the BuildKit dependency version and the short VCS revision.
type buildDetails struct {
	buildkit string
	commit   string
}

func read() buildDetails {
	var d buildDetails
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return d
	}
	for _, dep := range info.Deps {
		if dep.Path == "github.com/moby/buildkit" {
			d.buildkit = dep.Version
			break
		}
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			d.commit = setting.Value
			if len(d.commit) > 12 {
				d.commit = d.commit[:12]
			}
			break
		}
	}
	return d
}

// Info holds structured version information for machine-readable output.
type Info struct {
	Version         string   `json:"version"`
	BuildkitVersion string   `json:"buildkitVersion,omitempty"`
	Platform        Platform `json:"platform"`
	GoVersion       string   `json:"goVersion"`
	GitCommit       string   `json:"gitCommit,omitempty"`
}

// Platform describes the OS and architecture.
type Platform struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// GetInfo returns structured version information.
func GetInfo() Info {
	d := read()
	return Info{
		Version:         current,
		BuildkitVersion: d.buildkit,
		Platform: Platform{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		GoVersion: runtime.Version(),
		GitCommit: d.commit,
	}
}
