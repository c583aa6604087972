package main

import (
	"os"

	"github.com/querytools/go-dynq/cmd/dynq/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
