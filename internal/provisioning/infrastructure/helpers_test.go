package infrastructure

import (
	"testing"

	"github.com/go-logr/logr/testr"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/provisioning"
	fake "github.com/imamik/spotcluster/internal/testing"
)

func newContext(t *testing.T, cloud *fake.FakeCloud, cfg *config.Config) (*provisioning.Context, *fake.MemoryStore) {
	t.Helper()
	if cfg == nil {
		cfg = fake.NewConfigBuilder().Build()
	}
	store := fake.NewMemoryStore()
	ctx := provisioning.NewContext(fake.TestContext(t), cfg, fake.NewRecord(cfg), store, cloud)
	ctx.Observer = provisioning.NewObserver(testr.New(t))
	return ctx, store
}

func runAll(t *testing.T, ctx *provisioning.Context) error {
	t.Helper()
	return provisioning.RunPhases(ctx, Phases())
}
