// Package config loads and validates service configuration from the
// environment and an optional config file.
package config
