// Package config loads, normalizes, and validates the TOML configuration
// shared by the SmartTask daemon and CLI.
package config
