package orchestration

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/provisioning/compute"
	"github.com/imamik/spotcluster/internal/provisioning/destroy"
	"github.com/imamik/spotcluster/internal/provisioning/infrastructure"
	"github.com/imamik/spotcluster/internal/record"
)

// ErrNoRecord is returned by Dismantle when there is no record to walk.
var ErrNoRecord = errors.New("no cluster record to dismantle")

// ErrRecordMismatch is returned by Dismantle when the stored record names a
// different cluster or region than the configuration. Nothing is removed.
var ErrRecordMismatch = errors.New("cluster record does not match configuration")

// PriceLoader supplies the on-demand catalog for a configuration.
type PriceLoader func(ctx context.Context, cfg *config.Config) (pricing.OnDemandSource, error)

// Orchestrator coordinates the create and dismantle workflows.
type Orchestrator struct {
	cloud    awscloud.Provider
	store    record.Store
	prices   PriceLoader
	metrics  *provisioning.Metrics
	rng      *rand.Rand
	now      func() time.Time
	timeouts *config.Timeouts
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPriceLoader replaces how the on-demand catalog is obtained.
func WithPriceLoader(load PriceLoader) Option {
	return func(o *Orchestrator) { o.prices = load }
}

// WithMetrics records phase and teardown metrics.
func WithMetrics(m *provisioning.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithRand sets the source used to pick the controller zone.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) { o.rng = rng }
}

// WithClock sets the time source for records, bids and the fleet validity.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTimeouts replaces the wait tuning read from the environment.
func WithTimeouts(t *config.Timeouts) Option {
	return func(o *Orchestrator) { o.timeouts = t }
}

// New returns an orchestrator acting through cloud and persisting to store.
func New(cloud awscloud.Provider, store record.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cloud:  cloud,
		store:  store,
		prices: LoadPrices,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Create provisions the cluster described by cfg, resuming from the stored
// record when one exists. The returned record reflects everything created,
// even when err is non-nil.
func (o *Orchestrator) Create(ctx context.Context, cfg *config.Config) (*record.ClusterRecord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logr.FromContextOrDiscard(ctx).WithValues("cluster", cfg.ClusterName)

	rec, err := o.store.Load(ctx)
	switch {
	case errors.Is(err, record.ErrNotFound):
		rec = record.New(cfg.ClusterName, cfg.Region, o.now())
		log.Info("Starting new cluster record", "location", o.store.Location())
	case err != nil:
		return nil, err
	default:
		log.Info("Resuming from cluster record", "location", o.store.Location(), "resources", len(rec.ResourceIDs()))
	}

	pCtx := o.context(ctx, cfg, rec)

	// A bid already in the record is reused, so prices are only needed
	// before the first bid.
	if rec.Bid == nil {
		prices, err := o.prices(ctx, cfg)
		if err != nil {
			return rec, fmt.Errorf("failed to load on-demand prices: %w", err)
		}
		pCtx.Prices = prices
	}

	phases := []provisioning.Phase{provisioning.NewValidationPhase()}
	phases = append(phases, infrastructure.Phases()...)
	phases = append(phases, compute.Phases(o.rng)...)

	if err := provisioning.RunPhases(pCtx, phases); err != nil {
		return rec, err
	}
	return rec, nil
}

// Dismantle tears down everything the stored record holds. The record is
// retired only when the walk finished without failures.
func (o *Orchestrator) Dismantle(ctx context.Context, cfg *config.Config) (*destroy.Report, error) {
	if err := cfg.ValidateForTeardown(); err != nil {
		return nil, err
	}

	rec, err := o.store.Load(ctx)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNoRecord, err)
		}
		return nil, err
	}
	if rec.Name != cfg.ClusterName || rec.Region != cfg.Region {
		return nil, fmt.Errorf("%w: record at %s is cluster %q in %s, configuration targets %q in %s",
			ErrRecordMismatch, o.store.Location(), rec.Name, rec.Region, cfg.ClusterName, cfg.Region)
	}

	report := destroy.NewProvisioner().Teardown(o.context(ctx, cfg, rec))
	if !report.OK() {
		return report, report.Err()
	}

	if err := o.store.Retire(ctx); err != nil {
		return report, err
	}
	logr.FromContextOrDiscard(ctx).Info("Cluster record retired", "location", o.store.Location())
	return report, nil
}

func (o *Orchestrator) context(ctx context.Context, cfg *config.Config, rec *record.ClusterRecord) *provisioning.Context {
	pCtx := provisioning.NewContext(ctx, cfg, rec, o.store, o.cloud)
	pCtx.Metrics = o.metrics
	pCtx.Now = o.now
	if o.timeouts != nil {
		pCtx.Timeouts = o.timeouts
	}
	return pCtx
}

// LoadPrices downloads the on-demand catalog for the configured region,
// reusing the configured snapshot when it already covers the region.
func LoadPrices(ctx context.Context, cfg *config.Config) (pricing.OnDemandSource, error) {
	client := pricing.NewClient()
	if cfg.Pricing.Endpoint != "" {
		client = pricing.NewClientWithEndpoint(cfg.Pricing.Endpoint)
	}
	cat, cached, err := client.FetchOrLoad(ctx, cfg.Pricing.CacheFile, cfg.Region)
	if err != nil {
		if cat == nil {
			return nil, err
		}
		// The catalog is usable even when saving the snapshot failed.
		logr.FromContextOrDiscard(ctx).Error(err, "Failed to save price catalog snapshot", "path", cfg.Pricing.CacheFile)
	}
	logr.FromContextOrDiscard(ctx).V(1).Info("On-demand prices loaded", "cached", cached, "types", len(cat.InstanceTypes()))
	return cat, nil
}
