// Package handlers implements the business logic behind each CLI command.
//
// Handlers load configuration, build the provider client and record store
// through swappable factory variables, and delegate the work to
// internal/orchestration or internal/pricing. Tests replace the factories.
package handlers
