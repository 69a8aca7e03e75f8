package main

import (
	"os"

	"dutchthrift_server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
