package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
)

// BidResult is the advisor's output.
type BidResult struct {
	Policy Policy
	// Ceiling is the highest per-unit bid, used as the fleet-wide price.
	Ceiling float64
	// PerType is the per-unit bid of every eligible type.
	PerType map[string]float64
	// OnDemandPerUnit is the on-demand price per unit of every eligible type.
	OnDemandPerUnit map[string]float64
	// Skipped lists requested types with no on-demand price in the region.
	Skipped []string
}

// EligibleTypes returns the types that received a bid, sorted.
func (r *BidResult) EligibleTypes() []string {
	types := lo.Keys(r.PerType)
	sort.Strings(types)
	return types
}

// Advisor computes spot bids.
type Advisor struct {
	prices  OnDemandSource
	history HistorySource
	now     func() time.Time
}

// AdvisorOption configures an Advisor.
type AdvisorOption func(*Advisor)

// WithClock sets the clock used for the history window.
func WithClock(now func() time.Time) AdvisorOption {
	return func(a *Advisor) { a.now = now }
}

// NewAdvisor creates an advisor. history may be nil when only the automatic
// policy is used.
func NewAdvisor(prices OnDemandSource, history HistorySource, opts ...AdvisorOption) *Advisor {
	a := &Advisor{prices: prices, history: history, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute returns per-type bids for the weighted instance types in region.
// Weights are capacity units per instance; every price is per unit.
func (a *Advisor) Compute(ctx context.Context, params Params, weights map[string]float64, region string) (*BidResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no instance types requested", ErrInvalidParams)
	}
	for t, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("%w: weight of %s must be positive, got %v", ErrInvalidParams, t, w)
		}
	}

	result := &BidResult{
		Policy:          params.Policy,
		PerType:         make(map[string]float64),
		OnDemandPerUnit: make(map[string]float64),
	}

	types := lo.Keys(weights)
	sort.Strings(types)
	for _, t := range types {
		price, ok := a.prices.OnDemand(t, region)
		if !ok {
			result.Skipped = append(result.Skipped, t)
			continue
		}
		result.OnDemandPerUnit[t] = price / weights[t]
	}
	if len(result.OnDemandPerUnit) == 0 {
		return nil, fmt.Errorf("%w: region %s, types %v", ErrPricingDataUnavailable, region, types)
	}

	var raw map[string]float64
	switch params.Policy {
	case PolicyAutomatic:
		raw = result.OnDemandPerUnit
	case PolicyCostMinimizing:
		var err error
		raw, err = a.costMinimizing(ctx, params, weights, result.OnDemandPerUnit)
		if err != nil {
			return nil, err
		}
	}

	result.Ceiling = Round6(lo.Max(lo.Values(raw)))
	for t, v := range raw {
		result.PerType[t] = Round6(v)
	}
	for t, v := range result.OnDemandPerUnit {
		result.OnDemandPerUnit[t] = Round6(v)
	}
	return result, nil
}

// costMinimizing bids, per type, the highest zone percentile of normalized
// spot prices times the inflation factor, capped at the on-demand unit price.
func (a *Advisor) costMinimizing(ctx context.Context, params Params, weights, onDemand map[string]float64) (map[string]float64, error) {
	if a.history == nil {
		return nil, fmt.Errorf("%w: no spot history source configured", ErrInsufficientHistory)
	}

	eligible := lo.Keys(onDemand)
	sort.Strings(eligible)

	obs, err := a.history.SpotPriceHistory(ctx, HistoryQuery{
		InstanceTypes:      eligible,
		Since:              a.now().Add(-params.Window),
		ProductDescription: params.ProductDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read spot price history: %w", err)
	}

	// type -> zone -> normalized prices
	series := make(map[string]map[string][]float64, len(eligible))
	for _, o := range obs {
		w, ok := weights[o.InstanceType]
		if _, eligibleType := onDemand[o.InstanceType]; !ok || !eligibleType {
			continue
		}
		byZone, ok := series[o.InstanceType]
		if !ok {
			byZone = make(map[string][]float64)
			series[o.InstanceType] = byZone
		}
		byZone[o.Zone] = append(byZone[o.Zone], o.Price/w)
	}

	bids := make(map[string]float64, len(eligible))
	for _, t := range eligible {
		byZone := series[t]
		if len(byZone) == 0 {
			return nil, fmt.Errorf("%w: no %s observations for %s in the last %s",
				ErrInsufficientHistory, params.ProductDescription, t, params.Window)
		}
		zoneMax := 0.0
		for _, prices := range byZone {
			zoneMax = max(zoneMax, Percentile(prices, params.Percentile))
		}
		bids[t] = min(onDemand[t], params.Inflation*zoneMax)
	}
	return bids, nil
}
