// Package main is the entry point for board-server.
package main

import (
	"os"

	"github.com/coregx/board/cmd/board-server/internal/cli"
)

// Set via ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	cli.SetVersionInfo(version, buildTime, gitCommit)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
