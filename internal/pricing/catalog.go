package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"
)

// Tenancy values found in the price list.
const (
	TenancyShared    = "Shared"
	TenancyDedicated = "Dedicated"
)

// Catalog holds on-demand Linux hourly prices.
type Catalog struct {
	Version         string    `json:"version,omitempty"`
	PublicationDate string    `json:"publicationDate,omitempty"`
	FetchedAt       time.Time `json:"fetchedAt"`
	// Regions lists the regions the catalog was restricted to. Empty means
	// every region in the offer file.
	Regions []string `json:"regions,omitempty"`
	// Prices maps instance type to tenancy to location to USD per hour.
	Prices map[string]map[string]map[string]float64 `json:"prices"`
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{Prices: make(map[string]map[string]map[string]float64)}
}

// Add records a price. When the same key is seen twice the lower price wins.
func (c *Catalog) Add(instanceType, tenancy, location string, price float64) {
	byTenancy, ok := c.Prices[instanceType]
	if !ok {
		byTenancy = make(map[string]map[string]float64)
		c.Prices[instanceType] = byTenancy
	}
	byLocation, ok := byTenancy[tenancy]
	if !ok {
		byLocation = make(map[string]float64)
		byTenancy[tenancy] = byLocation
	}
	if existing, ok := byLocation[location]; ok && existing <= price {
		return
	}
	byLocation[location] = price
}

// OnDemand returns the shared-tenancy hourly price of a type in a region.
func (c *Catalog) OnDemand(instanceType, region string) (float64, bool) {
	loc, err := LocationForRegion(region)
	if err != nil {
		return 0, false
	}
	price, ok := c.Prices[instanceType][TenancyShared][loc]
	return price, ok
}

// Covers reports whether the catalog was built with data for region.
func (c *Catalog) Covers(region string) bool {
	return len(c.Regions) == 0 || slices.Contains(c.Regions, region)
}

// InstanceTypes returns every instance type with a price, sorted.
func (c *Catalog) InstanceTypes() []string {
	out := make([]string, 0, len(c.Prices))
	for t := range c.Prices {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Save writes a snapshot of the catalog.
func (c *Catalog) Save(path string) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode price catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write price catalog: %w", err)
	}
	return nil
}

// LoadCatalog reads a snapshot written by Save.
func LoadCatalog(path string) (*Catalog, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price catalog: %w", err)
	}
	cat := NewCatalog()
	if err := json.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("failed to parse price catalog %s: %w", path, err)
	}
	if len(cat.Prices) == 0 {
		return nil, fmt.Errorf("price catalog %s is empty", path)
	}
	return cat, nil
}
