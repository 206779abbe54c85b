// Package config provides configuration management for the Switchyard
// routing service.
//
// # Overview
//
// The config package uses Viper to load configuration from YAML files and
// environment variables. It provides a type-safe configuration structure with
// validation, default values, and automatic file creation.
//
// # Configuration File
//
// The configuration is stored at ~/.switchyard/config.yaml and is
// automatically created with sensible defaults on first use. The file
// structure mirrors the Go structs defined in this package.
//
// Note that the application configuration is separate from the routing
// policy document: this package configures the service (server address,
// journal, logging, where the policy lives), while the policy package owns
// the routing rules themselves.
//
// # Environment Variables
//
// All configuration values can be overridden using environment variables
// with the SWITCHYARD_ prefix. Nested fields are separated by underscores.
//
// Examples:
//   - SWITCHYARD_SERVER_PORT=8080
//   - SWITCHYARD_JOURNAL_ENABLED=true
//   - SWITCHYARD_LOGGING_LEVEL=debug
//
// # Configuration Sections
//
//   - Server: HTTP routing API address and timeouts
//   - Policy: location of the routing policy document
//   - Journal: SQLite decision journal settings
//   - Logging: log level and output format
//
// # Path Expansion
//
// The package automatically expands ~ to the user's home directory in
// all path configurations, making config files portable across systems.
//
// # Thread Safety
//
// Config instances are not thread-safe. Load the configuration once at
// startup and treat it as read-only afterwards.
package config
