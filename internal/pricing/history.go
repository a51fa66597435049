package pricing

import (
	"context"
	"time"
)

// Observation is one spot price sample.
type Observation struct {
	InstanceType       string
	Zone               string
	ProductDescription string
	Timestamp          time.Time
	// Price is USD per instance-hour.
	Price float64
}

// HistoryQuery selects spot price samples.
type HistoryQuery struct {
	InstanceTypes      []string
	Since              time.Time
	ProductDescription string
}

// HistorySource reads spot price history for the current region.
type HistorySource interface {
	SpotPriceHistory(ctx context.Context, q HistoryQuery) ([]Observation, error)
}

// OnDemandSource returns shared-tenancy on-demand prices. *Catalog
// implements it.
type OnDemandSource interface {
	OnDemand(instanceType, region string) (float64, bool)
}
