package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/go-logr/logr"
)

// ErrAborted is returned when the user declines the destroy confirmation.
var ErrAborted = errors.New("destroy aborted")

// confirmDestroy asks before tearing anything down.
var confirmDestroy = func(ctx context.Context, cluster, location string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Destroy cluster %q?", cluster)).
				Description("Every resource in " + location + " will be removed.").
				Affirmative("Destroy").
				Negative("Cancel").
				Value(&ok),
		),
	).RunWithContext(ctx)
	return ok, err
}

// DestroyOptions are the inputs of the destroy command.
type DestroyOptions struct {
	ConfigPath  string
	Overrides   map[string]any
	Yes         bool
	MetricsFile string
}

// Destroy handles the destroy command.
//
// It walks the cluster record in reverse creation order. Resources already
// gone are skipped, failures are collected, and the record is removed only
// once nothing is left.
func Destroy(ctx context.Context, opts DestroyOptions) error {
	cfg, err := readConfig(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return err
	}
	if err := cfg.ValidateForTeardown(); err != nil {
		return err
	}

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.writeMetrics(ctx, opts.MetricsFile)

	if !opts.Yes && isTerminal() {
		ok, err := confirmDestroy(ctx, cfg.ClusterName, s.location)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
	}

	logr.FromContextOrDiscard(ctx).Info("Destroying cluster", "cluster", cfg.ClusterName, "record", s.location)

	report, err := s.orch.Dismantle(ctx, cfg)
	if report != nil {
		fmt.Fprint(stdout, renderReport(cfg.ClusterName, report))
	}
	if err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}
	return nil
}
