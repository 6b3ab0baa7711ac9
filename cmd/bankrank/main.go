package main

import (
	"os"

	"github.com/wonny/bankrank/backend/cmd/bankrank/commands"
)

// main is the entry point for the bankrank CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/bankrank [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
