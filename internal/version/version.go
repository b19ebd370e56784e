// Package version reports the PawCheck build and checks it against the
// oldest client the backend still supports.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Set at build time with -ldflags "-X pawcheck/internal/version.Version=...".
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string          `json:"version"`
	GitCommit string          `json:"gitCommit"`
	BuildDate string          `json:"buildDate"`
	GoVersion string          `json:"goVersion"`
	Platform  string          `json:"platform"`
	SemVer    *semver.Version `json:"-"`
}

// GetVersion returns the raw version string.
func GetVersion() string {
	return Version
}

// GetBaseVersion returns major.minor.patch, dropping pre-release and build metadata.
// An unparsable Version is returned unchanged.
func GetBaseVersion() string {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return Version
	}
	base, _ := sv.SetPrerelease("")
	base, _ = base.SetMetadata("")
	return base.String()
}

// GetInfo parses Version and collects the build details.
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version %q: %w", Version, err)
	}
	return &Info{
		Version:   sv.Original(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		SemVer:    sv,
	}, nil
}

func known(value string) bool {
	return value != "" && value != "unknown"
}

// GetFormattedVersion returns the one-line banner version, e.g.
// "PawCheck v0.3.0, commit 1a2b3c4, built 2025-06-01".
func GetFormattedVersion() string {
	out := "PawCheck v" + Version
	if known(GitCommit) {
		commit := GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		out += ", commit " + commit
	}
	if known(BuildDate) {
		out += ", built " + BuildDate
	}
	return out
}

// GetDetailedVersion returns the multi-line output of `pawcheck version`.
func GetDetailedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("PawCheck v%s (error: %v)", Version, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PawCheck v%s\n", info.Version)
	fmt.Fprintf(&b, "Git Commit: %s\n", info.GitCommit)
	fmt.Fprintf(&b, "Build Date: %s\n", info.BuildDate)
	if meta := info.SemVer.Metadata(); meta != "" {
		fmt.Fprintf(&b, "Build Metadata: %s\n", meta)
	}
	fmt.Fprintf(&b, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(&b, "Platform: %s", info.Platform)
	return b.String()
}

// UserAgent identifies the client to the backend.
func UserAgent() string {
	return fmt.Sprintf("pawcheck/%s (%s/%s)", GetBaseVersion(), runtime.GOOS, runtime.GOARCH)
}

// IsCompatible reports whether this build satisfies the minimum client
// version advertised by the backend. An empty minimum always passes, and
// pre-release builds are compared by their base version.
func IsCompatible(minVersion string) (bool, error) {
	minVersion = strings.TrimSpace(minVersion)
	if minVersion == "" {
		return true, nil
	}
	constraint, err := semver.NewConstraint(">= " + minVersion)
	if err != nil {
		return false, fmt.Errorf("invalid minimum client version %q: %w", minVersion, err)
	}
	current, err := semver.NewVersion(GetBaseVersion())
	if err != nil {
		return false, fmt.Errorf("invalid semantic version %q: %w", Version, err)
	}
	return constraint.Check(current), nil
}
