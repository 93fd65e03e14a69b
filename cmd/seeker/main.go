package main

import (
	"os"

	"github.com/wonny/dividend-seeker/cmd/seeker/commands"
)

// main is the entry point for the dividend-seeker CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/seeker [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
