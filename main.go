package main

import (
	"os"

	"github.com/applymate/applymate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
