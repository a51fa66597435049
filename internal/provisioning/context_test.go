package provisioning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	fake "github.com/imamik/spotcluster/internal/testing"
	"github.com/imamik/spotcluster/internal/util/tags"
)

func TestNewContext(t *testing.T) {
	t.Parallel()
	cfg := fake.NewConfigBuilder().Build()
	cloud := fake.NewFakeCloud("us-east-1")
	rec := fake.NewRecord(cfg)

	ctx := NewContext(context.Background(), cfg, rec, nil, cloud)

	require.NotNil(t, ctx)
	assert.Same(t, cfg, ctx.Config)
	assert.Same(t, rec, ctx.Record)
	assert.NotNil(t, ctx.Observer)
	assert.NotNil(t, ctx.Templates)
	assert.NotNil(t, ctx.Timeouts)
	assert.Nil(t, ctx.Metrics)
}

func TestContext_Checkpoint(t *testing.T) {
	t.Parallel()
	ctx, _, store := newTestContext(t, fake.NewFakeCloud("us-east-1"))
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	ctx.Now = fake.FixedClock(now)
	ctx.Record.NetworkID = "vpc-9"

	require.NoError(t, ctx.Checkpoint())
	assert.Equal(t, 1, store.Saves())

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "vpc-9", saved.NetworkID)
	assert.Equal(t, now, saved.UpdatedAt)
}

func TestContext_CheckpointFailure(t *testing.T) {
	t.Parallel()
	ctx, _, _ := newTestContext(t, fake.NewFakeCloud("us-east-1"))
	store := fake.NewMockStore()
	store.On("Save", mock.Anything, mock.AnythingOfType("*record.ClusterRecord")).Return(errors.New("disk full"))
	ctx.Store = store

	err := ctx.Checkpoint()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock://record")
	store.AssertExpectations(t)
}

func TestContext_CheckpointWithoutStore(t *testing.T) {
	t.Parallel()
	ctx, _, _ := newTestContext(t, fake.NewFakeCloud("us-east-1"))
	ctx.Store = nil
	assert.NoError(t, ctx.Checkpoint())
}

func TestContext_Tags(t *testing.T) {
	t.Parallel()
	ctx, _, _ := newTestContext(t, fake.NewFakeCloud("us-east-1"))
	ctx.Config.Tags = map[string]string{"team": "research", tags.KeyName: "ignored"}

	got := ctx.Tags("VPC")
	assert.Equal(t, "test-cluster VPC", got[tags.KeyName])
	assert.Equal(t, "test-cluster", got[tags.KeyCluster])
	assert.Equal(t, "research", got["team"])

	role := ctx.RoleTags("controller", "controller")
	assert.Equal(t, "controller", role[tags.KeyRole])
}
