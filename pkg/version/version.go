package version

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/netraven-io/netraven/pkg/version.Version=v1.0.0 \
//	  -X github.com/netraven-io/netraven/pkg/version.GitCommit=abc1234 \
//	  -X github.com/netraven-io/netraven/pkg/version.BuildDate=2026-07-29"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a single-line human-readable version string for the
// version subcommand and startup log line.
func Info() string {
	return fmt.Sprintf("netravend %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
