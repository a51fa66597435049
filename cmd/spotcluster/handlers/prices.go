package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/pricing"
)

// fetchCatalog downloads the catalog or reuses the configured snapshot.
var fetchCatalog = func(ctx context.Context, cfg *config.Config) (*pricing.Catalog, bool, error) {
	return priceClient(cfg).FetchOrLoad(ctx, cfg.Pricing.CacheFile, cfg.Region)
}

// PricesOptions are the inputs of the prices command.
type PricesOptions struct {
	ConfigPath string
	Overrides  map[string]any
	// All lists every type in the region instead of the fleet's types.
	All bool
	// Refresh discards the snapshot before loading.
	Refresh bool
}

// Prices handles the prices command.
func Prices(ctx context.Context, opts PricesOptions) error {
	cfg, err := readConfig(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return err
	}
	if cfg.Region == "" {
		return &config.ConfigurationError{Field: "region", Reason: "is required"}
	}
	if _, err := pricing.LocationForRegion(cfg.Region); err != nil {
		return err
	}

	if opts.Refresh && cfg.Pricing.CacheFile != "" {
		if err := os.Remove(cfg.Pricing.CacheFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to discard price snapshot: %w", err)
		}
	}

	cat, cached, err := fetchCatalog(ctx, cfg)
	if err != nil {
		if cat == nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	var types []string
	if opts.All {
		types = cat.InstanceTypes()
	} else {
		for _, it := range cfg.Fleet.InstanceTypes {
			types = append(types, it.Type)
		}
	}

	prices := make(map[string]float64, len(types))
	var missing []string
	for _, t := range types {
		if p, ok := cat.OnDemand(t, cfg.Region); ok {
			prices[t] = p
		} else {
			missing = append(missing, t)
		}
	}

	fmt.Fprint(stdout, renderPrices(cfg.Region, prices, cached))
	if len(missing) > 0 {
		fmt.Fprintf(stdout, "    No price in %s: %v\n", cfg.Region, missing)
	}
	return nil
}
