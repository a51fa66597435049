package handlers

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/orchestration"
	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/record"
	fake "github.com/imamik/spotcluster/internal/testing"
)

// replace swaps a factory variable for the duration of the test.
func replace[T any](t *testing.T, target *T, value T) {
	t.Helper()
	orig := *target
	*target = value
	t.Cleanup(func() { *target = orig })
}

// env wires every handler factory to in-memory fakes.
type env struct {
	cfg   *config.Config
	cloud *fake.FakeCloud
	store *fake.MemoryStore
	out   *bytes.Buffer
	// overrides passed to the last config load.
	overrides map[string]any
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("SPOTCLUSTER_WAIT_INTERVAL", "1ms")

	e := &env{
		cfg:   fake.NewConfigBuilder().WithKeyDir(t.TempDir()).Build(),
		cloud: fake.NewFakeCloud("us-east-1"),
		store: fake.NewMemoryStore(),
		out:   &bytes.Buffer{},
	}

	load := func(_ string, overrides map[string]any) (*config.Config, error) {
		e.overrides = overrides
		cfg := *e.cfg
		return &cfg, nil
	}
	replace(t, &loadConfig, load)
	replace(t, &readConfig, load)
	replace(t, &newCloud, func(context.Context, *config.Config, awscloud.CallObserver) (awscloud.Provider, error) {
		return e.cloud, nil
	})
	replace(t, &openStore, func(context.Context, string, string) (record.Store, error) {
		return e.store, nil
	})
	replace[orchestration.PriceLoader](t, &loadPrices, func(context.Context, *config.Config) (pricing.OnDemandSource, error) {
		return fake.NewCatalog(), nil
	})
	replace(t, &isTerminal, func() bool { return false })
	replace[io.Writer](t, &stdout, e.out)
	return e
}
