// Package config loads application configuration from environment variables
// with sensible defaults for every field.
package config
