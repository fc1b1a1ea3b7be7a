package main

import (
	"os"

	"github.com/wenhao/stockboard/backend/cmd/stockboard/commands"
)

// main is the entry point for the stockboard CLI:
// go run ./cmd/stockboard [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
