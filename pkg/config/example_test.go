package config_test

import (
	"fmt"

	"github.com/wonny/dividend-seeker/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Data dir: %s\n", cfg.DataDir)
	fmt.Printf("Markets: %v\n", cfg.Scan.Markets)
	fmt.Printf("Workers: %d\n", cfg.Scan.Workers)
}
