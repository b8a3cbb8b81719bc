package main

import (
	"os"

	"github.com/appbuilder/appbuilder/pkg/cli"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
