// Package main provides the CLI for leapcheck.
package main

import (
	"os"

	"github.com/leapstack-labs/leapcheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
