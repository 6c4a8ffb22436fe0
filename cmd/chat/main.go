package main

import (
	"os"

	"github.com/haiintel/dashboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
