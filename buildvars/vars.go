// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

import "runtime/debug"

const modulePath = "github.com/toeirei/sshlure"

// Version, Commit and Date are set at link time, e.g.
// `-ldflags "-X github.com/toeirei/sshlure/buildvars.Version=v1.0.0"`.
// They are empty for local or development builds.
var (
	Version string
	Commit  string
	Date    string
)

// VersionOrDefault returns `Version` if set, otherwise returns the provided default.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}

// Resolve returns version, commit and build date, preferring link-time
// values and falling back to the module build info. A nil info reads the
// running binary's build info.
func Resolve(info *debug.BuildInfo) (version, commit, date string) {
	version = VersionOrDefault("dev")
	commit = Commit
	date = Date

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info != nil {
		if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		// Built as a dependency of another module.
		if version == "dev" {
			for _, dep := range info.Deps {
				if dep != nil && dep.Path == modulePath && dep.Version != "" {
					version = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" {
					commit = s.Value
				}
			case "vcs.time":
				if date == "" {
					date = s.Value
				}
			}
		}
	}

	if version == "dev" && commit != "" {
		version = commit
	}
	return version, commit, date
}

// String formats the resolved build information on one line.
func String() string {
	v, c, d := Resolve(nil)
	out := v
	if c != "" && c != v {
		if len(c) > 12 {
			c = c[:12]
		}
		out += " (" + c + ")"
	}
	if d != "" {
		out += " built: " + d
	}
	return out
}
