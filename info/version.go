package info

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	name    = "portrand"
	version = "dev build"
	license = "AGPL"

	info     *Info
	loadInfo sync.Once
)

// Info holds the programs meta information.
type Info struct {
	Name    string
	Version string
	License string

	Commit     string
	CommitTime string
	Dirty      bool
}

// Set sets meta information via the main routine. It must be called before any other function of this package.
func Set(setName string, setVersion string, setLicenseName string) {
	if setName != "" {
		name = setName
	}
	if setVersion != "" {
		version = setVersion
	}
	if setLicenseName != "" {
		license = setLicenseName
	}
}

// GetInfo returns all the meta information about the program.
func GetInfo() *Info {
	loadInfo.Do(func() {
		buildSettings := make(map[string]string)
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range buildInfo.Settings {
				buildSettings[setting.Key] = setting.Value
			}
		}

		info = &Info{
			Name:       name,
			Version:    version,
			License:    license,
			Commit:     buildSettings["vcs.revision"],
			CommitTime: buildSettings["vcs.time"],
			Dirty:      buildSettings["vcs.modified"] == "true",
		}
		if info.Commit == "" {
			info.Commit = "[commit unknown]"
		}
		if info.CommitTime == "" {
			info.CommitTime = "[commit time unknown]"
		}
	})

	return info
}

// Version returns the short version string.
func Version() string {
	info := GetInfo()

	if info.Dirty {
		return info.Version + "*"
	}
	return info.Version
}

// FullVersion returns the full and detailed version string.
func FullVersion() string {
	info := GetInfo()
	builder := new(strings.Builder)

	fmt.Fprintf(builder, "%s %s\n", info.Name, Version())
	fmt.Fprintf(builder, "\nbuilt with %s (%s) %s/%s\n", runtime.Version(), runtime.Compiler, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(builder, "\ncommit %s\n", info.Commit)
	fmt.Fprintf(builder, "  at %s\n", info.CommitTime)
	fmt.Fprintf(builder, "\nLicensed under the %s license.", info.License)

	return builder.String()
}
