package main

import (
	"os"

	"github.com/datumcontrole/category-store/app/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
