package main

import (
	"os"

	"github.com/wolfman30/orch-console/cmd/orchctl/app"
)

var version = "dev"

func main() {
	if err := app.NewCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
