// Package config provides configuration management for stathive.
//
// This package handles loading, validating, and managing configuration
// from YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention STATHIVE_SECTION_FIELD.
// For example:
//
//   - STATHIVE_REGISTRY_PATH overrides registry.path
//   - STATHIVE_REGISTRY_MAX_ENTRIES overrides registry.max_entries
//   - STATHIVE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - STATHIVE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # The Admission Limit
//
// registry.max_entries sizes the shared region at bootstrap and is fixed
// for the lifetime of the region file. Reloading configuration never
// resizes an existing region; a changed limit only takes effect when the
// region is created anew.
package config
