package pricing

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPrices map[string]float64

func (s staticPrices) OnDemand(instanceType, _ string) (float64, bool) {
	p, ok := s[instanceType]
	return p, ok
}

type fakeHistory struct {
	obs   []Observation
	err   error
	query HistoryQuery
	calls int
}

func (f *fakeHistory) SpotPriceHistory(_ context.Context, q HistoryQuery) ([]Observation, error) {
	f.calls++
	f.query = q
	return f.obs, f.err
}

var advisorNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func obs(instanceType, zone string, price float64) Observation {
	return Observation{InstanceType: instanceType, Zone: zone, ProductDescription: "Linux/UNIX", Timestamp: advisorNow, Price: price}
}

func TestAdvisor_Automatic(t *testing.T) {
	prices := staticPrices{"c4.large": 0.105, "c4.xlarge": 0.199, "c4.8xlarge": 1.591}
	weights := map[string]float64{"c4.large": 2, "c4.xlarge": 4, "c4.8xlarge": 36}
	history := &fakeHistory{}

	result, err := NewAdvisor(prices, history).Compute(context.Background(), DefaultParams(PolicyAutomatic), weights, "us-east-1")
	require.NoError(t, err)

	assert.Equal(t, PolicyAutomatic, result.Policy)
	assert.Equal(t, 0.0525, result.PerType["c4.large"])
	assert.Equal(t, 0.04975, result.PerType["c4.xlarge"])
	assert.Equal(t, 0.044194, result.PerType["c4.8xlarge"], "1.591/36 rounded to 6 decimals")
	assert.Equal(t, 0.0525, result.Ceiling)
	assert.Empty(t, result.Skipped)
	assert.Zero(t, history.calls, "automatic never reads spot history")
}

func TestAdvisor_AutomaticCeilingIsMaxPerUnit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		prices := staticPrices{}
		weights := map[string]float64{}
		want := 0.0
		for _, t := range []string{"a", "b", "c", "d"} {
			p := rng.Float64() * 5
			w := float64(1 + rng.Intn(64))
			prices[t] = p
			weights[t] = w
			want = max(want, p/w)
		}

		result, err := NewAdvisor(prices, nil).Compute(context.Background(), DefaultParams(PolicyAutomatic), weights, "us-east-1")
		require.NoError(t, err)
		assert.Equal(t, Round6(want), result.Ceiling)
	}
}

func TestAdvisor_CostMinimizing(t *testing.T) {
	prices := staticPrices{"c4.large": 0.10, "c4.xlarge": 0.20}
	weights := map[string]float64{"c4.large": 2, "c4.xlarge": 4}
	history := &fakeHistory{obs: []Observation{
		// c4.large, zone a: per-unit 0.010, 0.012, 0.014, 0.016 -> P75 = 0.0145
		obs("c4.large", "us-east-1a", 0.020),
		obs("c4.large", "us-east-1a", 0.024),
		obs("c4.large", "us-east-1a", 0.028),
		obs("c4.large", "us-east-1a", 0.032),
		// c4.large, zone b: single 0.009 per unit
		obs("c4.large", "us-east-1b", 0.018),
		// c4.xlarge, zone a: per-unit 0.02
		obs("c4.xlarge", "us-east-1a", 0.08),
		// unrelated type is ignored
		obs("m5.large", "us-east-1a", 9.0),
	}}

	advisor := NewAdvisor(prices, history, WithClock(func() time.Time { return advisorNow }))
	result, err := advisor.Compute(context.Background(), DefaultParams(PolicyCostMinimizing), weights, "us-east-1")
	require.NoError(t, err)

	assert.InDelta(t, 0.02175, result.PerType["c4.large"], 1e-9, "1.5 * 0.0145")
	assert.InDelta(t, 0.03, result.PerType["c4.xlarge"], 1e-9, "1.5 * 0.02")
	assert.InDelta(t, 0.03, result.Ceiling, 1e-9)

	assert.Equal(t, []string{"c4.large", "c4.xlarge"}, history.query.InstanceTypes)
	assert.Equal(t, advisorNow.Add(-48*time.Hour), history.query.Since)
	assert.Equal(t, "Linux/UNIX", history.query.ProductDescription)
}

func TestAdvisor_CostMinimizingClampsToOnDemand(t *testing.T) {
	prices := staticPrices{"c4.large": 0.10}
	weights := map[string]float64{"c4.large": 2}
	history := &fakeHistory{obs: []Observation{obs("c4.large", "us-east-1a", 0.09)}}

	result, err := NewAdvisor(prices, history).Compute(context.Background(), DefaultParams(PolicyCostMinimizing), weights, "us-east-1")
	require.NoError(t, err)

	assert.Equal(t, 0.05, result.PerType["c4.large"], "1.5 * 0.045 exceeds the 0.05 on-demand unit price")
	assert.Equal(t, 0.05, result.Ceiling)
}

func TestAdvisor_CostMinimizingNeverExceedsOnDemand(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prices := staticPrices{"c3.large": 0.105, "c4.xlarge": 0.199}
	weights := map[string]float64{"c3.large": 2, "c4.xlarge": 4}

	for i := 0; i < 300; i++ {
		var history []Observation
		for _, it := range []string{"c3.large", "c4.xlarge"} {
			for _, zone := range []string{"a", "b", "c"} {
				for n := 0; n < 1+rng.Intn(5); n++ {
					history = append(history, obs(it, zone, rng.Float64()*0.5))
				}
			}
		}
		params := DefaultParams(PolicyCostMinimizing)
		params.Inflation = 0.1 + rng.Float64()*10
		params.Percentile = rng.Float64() * 100

		result, err := NewAdvisor(prices, &fakeHistory{obs: history}).Compute(context.Background(), params, weights, "us-east-1")
		require.NoError(t, err)
		for it, bid := range result.PerType {
			assert.LessOrEqual(t, bid, Round6(prices[it]/weights[it]), "type %s inflation %v percentile %v", it, params.Inflation, params.Percentile)
		}
		assert.LessOrEqual(t, result.Ceiling, 0.0525)
	}
}

func TestAdvisor_SkipsTypesWithoutOnDemandPrice(t *testing.T) {
	prices := staticPrices{"c4.large": 0.10}
	weights := map[string]float64{"c4.large": 2, "c5.metal": 96}

	result, err := NewAdvisor(prices, nil).Compute(context.Background(), DefaultParams(PolicyAutomatic), weights, "ca-central-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c5.metal"}, result.Skipped)
	assert.Equal(t, []string{"c4.large"}, result.EligibleTypes())
}

func TestAdvisor_Errors(t *testing.T) {
	weights := map[string]float64{"c4.large": 2}

	tests := []struct {
		name    string
		prices  staticPrices
		history HistorySource
		params  Params
		weights map[string]float64
		want    error
	}{
		{
			name:    "no on-demand data",
			prices:  staticPrices{},
			params:  DefaultParams(PolicyAutomatic),
			weights: weights,
			want:    ErrPricingDataUnavailable,
		},
		{
			name:    "type without history",
			prices:  staticPrices{"c4.large": 0.1, "c4.xlarge": 0.2},
			history: &fakeHistory{obs: []Observation{obs("c4.large", "a", 0.02)}},
			params:  DefaultParams(PolicyCostMinimizing),
			weights: map[string]float64{"c4.large": 2, "c4.xlarge": 4},
			want:    ErrInsufficientHistory,
		},
		{
			name:    "no history source",
			prices:  staticPrices{"c4.large": 0.1},
			params:  DefaultParams(PolicyCostMinimizing),
			weights: weights,
			want:    ErrInsufficientHistory,
		},
		{
			name:    "empty type set",
			prices:  staticPrices{"c4.large": 0.1},
			params:  DefaultParams(PolicyAutomatic),
			weights: map[string]float64{},
			want:    ErrInvalidParams,
		},
		{
			name:    "zero weight",
			prices:  staticPrices{"c4.large": 0.1},
			params:  DefaultParams(PolicyAutomatic),
			weights: map[string]float64{"c4.large": 0},
			want:    ErrInvalidParams,
		},
		{
			name:    "percentile out of range",
			prices:  staticPrices{"c4.large": 0.1},
			params:  Params{Policy: PolicyCostMinimizing, Inflation: 1.5, Percentile: 120, Window: time.Hour},
			weights: weights,
			want:    ErrInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdvisor(tt.prices, tt.history).Compute(context.Background(), tt.params, tt.weights, "us-east-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAdvisor_HistoryError(t *testing.T) {
	history := &fakeHistory{err: errors.New("throttled")}
	_, err := NewAdvisor(staticPrices{"c4.large": 0.1}, history).
		Compute(context.Background(), DefaultParams(PolicyCostMinimizing), map[string]float64{"c4.large": 2}, "us-east-1")
	assert.ErrorContains(t, err, "throttled")
}
