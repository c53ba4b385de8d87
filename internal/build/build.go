// Package build holds version information injected at link time, e.g.
// -ldflags "-X github.com/G-Research/loadfixture/internal/build.ReleaseVersion=v1.2.3".
package build

import "runtime"

var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	BuildTime      = "UNKNOWN"
	GoVersion      = runtime.Version()
)
