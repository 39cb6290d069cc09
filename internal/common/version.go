package common

import "fmt"

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/ternarybob/menuscout/internal/common.Version=1.0.0"
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the release version
func GetVersion() string {
	return Version
}

// GetFullVersion returns the version with build and commit
func GetFullVersion() string {
	return fmt.Sprintf("menuscout %s (build %s, commit %s)", Version, Build, GitCommit)
}
