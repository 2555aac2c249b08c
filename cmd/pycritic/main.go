// Package main implements the pycritic CLI, an educational static
// analyzer for Python that explains its findings instead of just
// pointing at them.
package main

import (
	"os"

	"github.com/l3aro/pycritic/cmd/pycritic/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`pycritic version {{.Version}}
`)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
