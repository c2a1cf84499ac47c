package main

import (
	"os"

	"github.com/lodestone-labs/lodestone/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
