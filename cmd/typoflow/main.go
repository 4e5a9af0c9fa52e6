package main

import (
	"os"

	"github.com/dshills/typoflow/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
