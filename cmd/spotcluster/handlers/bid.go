package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/pricing"
)

// Bid output formats.
const (
	OutputTable   = "table"
	OutputBox     = "box"
	OutputCompact = "compact"
	OutputJSON    = "json"
)

// BidOptions are the inputs of the bid command.
type BidOptions struct {
	ConfigPath string
	Overrides  map[string]any
	Output     string
}

// Bid handles the bid command.
//
// It computes the bid the next create would submit, without creating
// anything.
func Bid(ctx context.Context, opts BidOptions) error {
	cfg, err := readConfig(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return err
	}
	if err := cfg.ValidateForTeardown(); err != nil {
		return err
	}
	if len(cfg.Fleet.InstanceTypes) == 0 {
		return &config.ConfigurationError{Field: "fleet.instance_types", Reason: "at least one instance type is required"}
	}
	params, err := cfg.BidParams()
	if err != nil {
		return err
	}

	prices, err := loadPrices(ctx, cfg)
	if err != nil {
		return err
	}
	cloud, err := newCloud(ctx, cfg, nil)
	if err != nil {
		return err
	}

	weights := cfg.Fleet.Weights()
	result, err := pricing.NewAdvisor(prices, cloud).Compute(ctx, params, weights, cfg.Region)
	if err != nil {
		return err
	}

	f := pricing.NewFormatter()
	switch opts.Output {
	case "", OutputTable:
		fmt.Fprint(stdout, renderBid(cfg.Region, weights, result))
	case OutputBox:
		fmt.Fprint(stdout, f.Format(cfg.Region, weights, result))
	case OutputCompact:
		fmt.Fprintln(stdout, f.FormatCompact(result))
	case OutputJSON:
		fmt.Fprintln(stdout, f.FormatJSON(result))
	default:
		return fmt.Errorf("unknown output format %q", opts.Output)
	}
	return nil
}
