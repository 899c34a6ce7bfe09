package main

import (
	"os"

	"github.com/runnerr0/recall/internal/cli"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// go-flags already printed the error to stderr.
	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}
