package main

import (
	"os"

	"github.com/ambis/miniquiz/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
