package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version variables injected at build time via ldflags
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the semantic version string
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp
func GetBuild() string {
	return Build
}

// GetGitCommit returns the short git commit hash
func GetGitCommit() string {
	return GitCommit
}

// GetFullVersion returns a formatted version string with all build info
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// LoadVersionFromFile fills in version info from a .version file next to
// the binary. File values only apply where ldflags left the defaults, so a
// release build always wins over a stale file.
func LoadVersionFromFile() {
	exe, err := os.Executable()
	if err != nil {
		return
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(exe), ".version"))
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch {
		case key == "version" && Version == "dev":
			Version = val
		case key == "build" && Build == "unknown":
			Build = val
		case key == "commit" && GitCommit == "unknown":
			GitCommit = val
		}
	}
}
