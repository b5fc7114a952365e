package main

import (
	"os"

	"github.com/splitsig/splitsig/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
