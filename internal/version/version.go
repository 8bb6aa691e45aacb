// Package version reports the dbconnect build and the database modules
// linked into it.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Overridden at build time with
// -ldflags "-X github.com/dbconnect/dbconnect/internal/version.Version=..."
var (
	Version   = "0.3.0"
	GitCommit = "dev"
	BuildDate = "unknown"
)

// Modules reported with the build, in display order.
var trackedModules = []string{
	"github.com/lib/pq",
	"github.com/go-sql-driver/mysql",
	"github.com/jmoiron/sqlx",
	"github.com/shopspring/decimal",
}

// Module is a dependency resolved into the binary.
type Module struct {
	Path    string
	Version string
}

type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
	Platform  string
	Modules   []Module
}

// Get returns the version of the running binary.
func Get() Info {
	bi, _ := debug.ReadBuildInfo()
	return fromBuildInfo(bi)
}

// fromBuildInfo fills Info from the linker variables, falling back to the
// VCS stamps the go command records when they were not set.
func fromBuildInfo(bi *debug.BuildInfo) Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi == nil {
		return info
	}

	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.GitCommit == "dev":
			info.GitCommit = shortRevision(s.Value)
		case s.Key == "vcs.time" && info.BuildDate == "unknown":
			info.BuildDate = s.Value
		}
	}

	deps := make(map[string]*debug.Module, len(bi.Deps))
	for _, dep := range bi.Deps {
		deps[dep.Path] = dep
	}
	for _, path := range trackedModules {
		dep, ok := deps[path]
		if !ok {
			continue
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		info.Modules = append(info.Modules, Module{Path: path, Version: dep.Version})
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func (i Info) String() string {
	return fmt.Sprintf("dbconnect %s (commit %s, %s, %s)", i.Version, i.GitCommit, i.GoVersion, i.Platform)
}

// Full is the multi-line form printed by `dbconnect version`.
func (i Info) Full() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dbconnect %s\n", i.Version)
	fmt.Fprintf(&b, "  commit:   %s\n", i.GitCommit)
	fmt.Fprintf(&b, "  built:    %s\n", i.BuildDate)
	fmt.Fprintf(&b, "  go:       %s %s\n", i.GoVersion, i.Platform)

	if len(i.Modules) == 0 {
		b.WriteString("  modules:  unavailable")
		return b.String()
	}
	b.WriteString("  modules:")
	for _, m := range i.Modules {
		fmt.Fprintf(&b, "\n    %s %s", m.Path, m.Version)
	}
	return b.String()
}
