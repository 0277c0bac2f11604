package main

import (
	"os"

	"exdir/cmd/exd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
