package main

import (
	"os"

	"github.com/abhisek/ailp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
