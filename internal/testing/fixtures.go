package testing

import (
	"time"

	"github.com/imamik/spotcluster/internal/pricing"
)

// OnDemandPrices are the us-east-1 hourly prices held by NewCatalog.
var OnDemandPrices = map[string]float64{
	"c4.large":   0.10,
	"c4.xlarge":  0.199,
	"c4.2xlarge": 0.398,
}

// NewCatalog returns a catalog with OnDemandPrices in us-east-1.
func NewCatalog() *pricing.Catalog {
	cat := pricing.NewCatalog()
	cat.Version = "20240301000000"
	cat.FetchedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for t, p := range OnDemandPrices {
		cat.Add(t, pricing.TenancyShared, "US East (N. Virginia)", p)
	}
	return cat
}

// SpotHistory returns one observation per zone and hour for an instance
// type, cycling through prices.
func SpotHistory(instanceType string, zones []string, at time.Time, prices ...float64) []pricing.Observation {
	var out []pricing.Observation
	for i, p := range prices {
		for _, zone := range zones {
			out = append(out, pricing.Observation{
				InstanceType:       instanceType,
				Zone:               zone,
				ProductDescription: pricing.DefaultProductDescription,
				Timestamp:          at.Add(-time.Duration(i) * time.Hour),
				Price:              p,
			})
		}
	}
	return out
}
