// Package config handles application configuration loading and validation.
//
// Configuration is loaded from a YAML file and validated using struct tags.
// Defaults are applied after validation; the result is exposed as the global
// Config, treated as read-only after startup.
package config
