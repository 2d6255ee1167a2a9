// Package main provides the reviso command-line interface.
package main

import (
	"os"

	"github.com/mgrundel/reviso/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
