// Command trasco applies versioned schema revisions to a database.
package main

import (
	"os"

	"github.com/roach88/trasco/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
