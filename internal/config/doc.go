// Package config loads and validates the service configuration from a .env
// file, an optional YAML file and SORIGHT_* environment variables.
package config
