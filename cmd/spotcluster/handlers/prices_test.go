package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/pricing"
	fake "github.com/imamik/spotcluster/internal/testing"
)

func withCatalog(t *testing.T, cached bool) {
	t.Helper()
	replace(t, &fetchCatalog, func(context.Context, *config.Config) (*pricing.Catalog, bool, error) {
		return fake.NewCatalog(), cached, nil
	})
}

func TestPrices_FleetTypes(t *testing.T) {
	e := newEnv(t)
	e.cfg.Fleet.InstanceTypes = append(e.cfg.Fleet.InstanceTypes, config.InstanceWeight{Type: "x1.32xlarge", Weight: 128})
	withCatalog(t, true)

	require.NoError(t, Prices(context.Background(), PricesOptions{}))

	out := e.out.String()
	assert.Contains(t, out, "c4.large")
	assert.Contains(t, out, "0.199")
	assert.NotContains(t, out, "c4.2xlarge")
	assert.Contains(t, out, "from snapshot")
	assert.Contains(t, out, "No price in us-east-1: [x1.32xlarge]")
}

func TestPrices_All(t *testing.T) {
	e := newEnv(t)
	withCatalog(t, false)

	require.NoError(t, Prices(context.Background(), PricesOptions{All: true}))

	out := e.out.String()
	assert.Contains(t, out, "c4.2xlarge")
	assert.Contains(t, out, "0.398")
	assert.Contains(t, out, "downloaded")
}

func TestPrices_Refresh(t *testing.T) {
	e := newEnv(t)
	snapshot := filepath.Join(t.TempDir(), "prices.json")
	require.NoError(t, os.WriteFile(snapshot, []byte("{}"), 0o600))
	e.cfg.Pricing.CacheFile = snapshot
	withCatalog(t, false)

	require.NoError(t, Prices(context.Background(), PricesOptions{Refresh: true}))

	_, err := os.Stat(snapshot)
	assert.True(t, os.IsNotExist(err))
}

func TestPrices_UnknownRegion(t *testing.T) {
	e := newEnv(t)
	e.cfg.Region = "mars-north-1"
	withCatalog(t, false)

	err := Prices(context.Background(), PricesOptions{})
	assert.Error(t, err)
	assert.Empty(t, e.out.String())
}
