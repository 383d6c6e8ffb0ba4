package main

import (
	"os"

	"github.com/harper/skylens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
