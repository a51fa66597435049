package handlers

import (
	"context"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/orchestration"
	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/provisioning"
)

// Factory function variables - can be replaced in tests.
var (
	// loadConfig loads and fully validates a configuration.
	loadConfig = config.Load

	// readConfig loads a configuration without validating it.
	readConfig = config.Read

	// newCloud creates the provider client for the configured region.
	newCloud = func(ctx context.Context, cfg *config.Config, obs awscloud.CallObserver) (awscloud.Provider, error) {
		return awscloud.NewRealClient(ctx, cfg.Region, cfg.EC2Endpoint, awscloud.WithCallObserver(obs))
	}

	// openStore opens the record store at a location.
	openStore = orchestration.OpenStore

	// loadPrices supplies the on-demand catalog.
	loadPrices orchestration.PriceLoader = orchestration.LoadPrices

	// isTerminal reports whether stdout is interactive.
	isTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	// stdout receives command output.
	stdout io.Writer = os.Stdout
)

// session holds what one create or destroy invocation shares.
type session struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *provisioning.Metrics
	orch     *orchestration.Orchestrator
	location string
}

func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	registry := prometheus.NewRegistry()
	metrics := provisioning.NewMetrics(registry)

	cloud, err := newCloud(ctx, cfg, metrics)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg.RecordLocation(), cfg.Region)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:      cfg,
		registry: registry,
		metrics:  metrics,
		orch: orchestration.New(cloud, store,
			orchestration.WithMetrics(metrics),
			orchestration.WithPriceLoader(loadPrices),
		),
		location: store.Location(),
	}, nil
}

// writeMetrics saves a metrics snapshot when path is set. A failure is
// logged, never returned.
func (s *session) writeMetrics(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := provisioning.WriteTextfile(s.registry, path); err != nil {
		logr.FromContextOrDiscard(ctx).Error(err, "Failed to write metrics", "path", path)
	}
}

// priceClient returns a client for the configured price list endpoint.
func priceClient(cfg *config.Config) *pricing.Client {
	if cfg.Pricing.Endpoint != "" {
		return pricing.NewClientWithEndpoint(cfg.Pricing.Endpoint)
	}
	return pricing.NewClient()
}
