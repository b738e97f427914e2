// Package main is the entry point for the marksafe CLI.
package main

import (
	"os"

	"github.com/mrz1836/marksafe/internal/cli"
)

// Set by the linker: -X main.version=... -X main.commit=... -X main.date=...
//
//nolint:gochecknoglobals // populated via ldflags
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetBuildInfo(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
