// Package main is the entry point for the release-flow CLI.
//
// All commands live in internal/cli. Build-time variables are injected via
// ldflags by GoReleaser and default to "dev", "none" and "unknown".
package main

import (
	"github.com/shinji-kodama/release-flow/internal/cli"
)

// Set by GoReleaser at build time (see .goreleaser.yml).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
