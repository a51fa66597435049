// Package config defines the configuration of a spot cluster and how it is
// loaded.
//
// [Load] merges built-in defaults, an optional YAML file, SPOTCLUSTER_*
// environment variables and explicit overrides through viper, then decodes
// the result into [Config] and validates it. Validation failures are
// [ConfigurationError] values and are reported before any provider call.
package config
