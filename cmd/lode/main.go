package main

import (
	"os"

	"github.com/lodestonemc/lodestone/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
