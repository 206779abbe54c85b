package config_test

import (
	"fmt"
	"log"

	"github.com/normanking/switchyard/internal/config"
)

// ExampleLoad demonstrates how to load configuration from the default location.
func ExampleLoad() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Server: %s\n", cfg.Server.Addr())
	fmt.Printf("Policy: %s\n", cfg.Policy.Path)
}

// ExampleLoadFromPath demonstrates loading config from a specific path.
func ExampleLoadFromPath() {
	cfg, err := config.LoadFromPath("/tmp/test-switchyard/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Loaded from custom path\n")
	fmt.Printf("Server: %s\n", cfg.Server.Addr())
}

// ExampleConfig_Validate demonstrates configuration validation.
func ExampleConfig_Validate() {
	cfg := config.Default()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	fmt.Println("Configuration is valid")

	// Try an invalid configuration
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Validation error: %v\n", err)
	}
}

// ExampleDefault demonstrates creating a config with default values.
func ExampleDefault() {
	cfg := config.Default()

	fmt.Printf("Server: %s\n", cfg.Server.Addr())
	fmt.Printf("Journal enabled: %v\n", cfg.Journal.Enabled)
	fmt.Printf("Log level: %s\n", cfg.Logging.Level)
}

// Example_fullWorkflow demonstrates a complete configuration workflow.
func Example_fullWorkflow() {
	// 1. Load existing config or create default
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 3. Use configuration
	fmt.Printf("Routing API on %s\n", cfg.Server.Addr())
	fmt.Printf("Policy document at %s\n", cfg.Policy.Path)

	// 4. Save any changes
	if err := cfg.Save(); err != nil {
		log.Fatalf("Failed to save config: %v", err)
	}

	fmt.Println("Configuration workflow complete")
}
