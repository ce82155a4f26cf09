// Package main provides the ccode CLI entry point.
// ccode manages Claude Code connection profiles and the claude-code-router configuration.
package main

import (
	"os"

	"ccode/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
