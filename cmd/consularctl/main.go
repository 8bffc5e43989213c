package main

import (
	"os"

	"consular/cmd/consularctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
