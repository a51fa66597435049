package handlers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// CreateOptions are the inputs of the create command.
type CreateOptions struct {
	ConfigPath string
	// Overrides use dotted configuration keys, e.g. "fleet.target_capacity".
	Overrides   map[string]any
	MetricsFile string
}

// Create handles the create command.
//
// It provisions the network, controller, storage and spot fleet, resuming
// from an existing record when a previous run stopped part way.
func Create(ctx context.Context, opts CreateOptions) error {
	cfg, err := loadConfig(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return err
	}

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.writeMetrics(ctx, opts.MetricsFile)

	logr.FromContextOrDiscard(ctx).Info("Creating cluster", "cluster", cfg.ClusterName, "region", cfg.Region)

	rec, err := s.orch.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create failed, partial record kept at %s: %w", s.location, err)
	}

	fmt.Fprint(stdout, renderCreated(rec, s.location))
	return nil
}
