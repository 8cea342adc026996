// burrow - typed value store CLI
//
// Usage:
//
//	burrow describe <schema-file>   Compile a schema file and print its types
//	burrow demo [--db path]         Write and read back a sample value
//
// Global flags: --format json|text, --verbose.
package main

import (
	"fmt"
	"os"

	"github.com/burrowdb/burrow/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
