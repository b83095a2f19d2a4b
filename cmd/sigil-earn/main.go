// Package main is the entry point for the sigil-earn CLI.
package main

import (
	"os"

	"github.com/mrz1836/sigil-earn/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
