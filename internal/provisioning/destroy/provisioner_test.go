package destroy

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/provisioning/compute"
	"github.com/imamik/spotcluster/internal/provisioning/infrastructure"
	fake "github.com/imamik/spotcluster/internal/testing"
)

func newContext(t *testing.T, cloud awscloud.Provider, b *fake.ConfigBuilder) *provisioning.Context {
	t.Helper()
	if b == nil {
		b = fake.NewConfigBuilder()
	}
	cfg := b.WithKeyDir(t.TempDir()).Build()
	ctx := provisioning.NewContext(fake.TestContext(t), cfg, fake.NewRecord(cfg), fake.NewMemoryStore(), cloud)
	ctx.Prices = fake.NewCatalog()
	ctx.Metrics = provisioning.NewMetrics(prometheus.NewRegistry())
	ctx.Timeouts = &config.Timeouts{
		PollInterval:      time.Millisecond,
		SlowAfterPolls:    5,
		InstanceRunning:   2 * time.Second,
		InstanceTerminate: 2 * time.Second,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
	}
	return ctx
}

// created returns a context whose record holds a complete cluster.
func created(t *testing.T, cloud *fake.FakeCloud, b *fake.ConfigBuilder) *provisioning.Context {
	t.Helper()
	ctx := newContext(t, cloud, b)
	phases := append(infrastructure.Phases(), compute.Phases(rand.New(rand.NewPCG(1, 1)))...)
	require.NoError(t, provisioning.RunPhases(ctx, phases))
	return ctx
}

func TestProvisioner_Name(t *testing.T) {
	assert.Equal(t, "teardown", NewProvisioner().Name())
}

func TestTeardown_RemovesEverything(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, fake.NewConfigBuilder().WithStorage(16, false))

	report := NewProvisioner().Teardown(ctx)
	require.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Empty(t, report.Missing)
	assert.Empty(t, cloud.LiveResources())
	assert.Empty(t, cloud.Tags(ctx.Record.RouteTableID), "route table tags cleared")

	// Key pairs survive teardown.
	_, ok := cloud.KeyPair(ctx.Record.KeyPairName)
	assert.True(t, ok)
}

func TestTeardown_KeepsVolume(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, nil)

	report := NewProvisioner().Teardown(ctx)
	require.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Equal(t, []string{ctx.Record.Storage.ID}, cloud.LiveResources())
	assert.Zero(t, cloud.CallCount("DeleteVolume"))
}

func TestTeardown_Twice(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, fake.NewConfigBuilder().WithStorage(16, false))

	first := NewProvisioner().Teardown(ctx)
	require.True(t, first.OK())

	second := NewProvisioner().Teardown(ctx)
	require.True(t, second.OK(), "failures: %v", second.Failures)
	// Tag deletion succeeds on a missing resource; everything else is gone.
	assert.Equal(t, []string{"route-table-tags " + ctx.Record.RouteTableID}, second.Removed)
	assert.Len(t, second.Missing, len(first.Removed)-1)
	assert.NoError(t, NewProvisioner().Provision(ctx))
}

func TestTeardown_Order(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, fake.NewConfigBuilder().WithStorage(16, false))
	start := len(cloud.Calls())

	require.True(t, NewProvisioner().Teardown(ctx).OK())

	var ops []string
	for _, op := range cloud.Calls()[start:] {
		if op == "DescribeInstance" {
			continue
		}
		if len(ops) > 0 && ops[len(ops)-1] == op {
			continue
		}
		ops = append(ops, op)
	}
	assert.Equal(t, []string{
		"CancelSpotFleet",
		"TerminateInstance",
		"DeleteVolume",
		"RevokeIngress",
		"RevokeEgress",
		"RevokeIngress",
		"DeleteSecurityGroup",
		"ListSubnets",
		"DeleteSubnet",
		"DeleteDefaultRoute",
		"DetachInternetGateway",
		"DeleteInternetGateway",
		"DeleteTags",
		"DeleteVPC",
	}, ops)
}

func TestTeardown_EmptyRulesNoCall(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, nil)
	start := len(cloud.Calls())

	require.True(t, NewProvisioner().Teardown(ctx).OK())

	egress := 0
	for _, op := range cloud.Calls()[start:] {
		if op == "RevokeEgress" {
			egress++
		}
	}
	assert.Equal(t, 1, egress, "only the storage group has recorded egress")
	assert.Equal(t, 3, countOps(cloud.Calls()[start:], "RevokeIngress"))
}

func countOps(calls []string, op string) int {
	n := 0
	for _, c := range calls {
		if c == op {
			n++
		}
	}
	return n
}

func TestTeardown_ContinuesPastFailures(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, fake.NewConfigBuilder().WithStorage(16, false))
	boom := errors.New("unauthorized")
	cloud.Fail("DeleteVolume", boom)

	report := NewProvisioner().Teardown(ctx)
	require.False(t, report.OK())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "volume", report.Failures[0].Step)
	assert.ErrorIs(t, report.Err(), boom)

	// Every later step still ran.
	assert.Equal(t, []string{ctx.Record.Storage.ID}, cloud.LiveResources())
	assert.ErrorIs(t, NewProvisioner().Provision(ctx), boom)

	cloud.Fail("DeleteVolume", nil)
	assert.True(t, NewProvisioner().Teardown(ctx).OK())
	assert.Empty(t, cloud.LiveResources())
}

func TestReport_ErrKeepsProviderCause(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, fake.NewConfigBuilder().WithStorage(16, false))
	boom := errors.New("unauthorized")
	cloud.Fail("DeleteVolume", boom)

	report := NewProvisioner().Teardown(ctx)
	err := report.Err()
	require.Error(t, err)

	var failure Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ctx.Record.Storage.ID, failure.Resource)

	var callErr *awscloud.ProviderCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "DeleteVolume", callErr.Op)
	assert.ErrorIs(t, err, boom)
	assert.False(t, awscloud.IsNotFound(err))
}

func TestTeardown_SubnetListingFallsBack(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, nil)
	cloud.Fail("ListSubnets", errors.New("throttled"))

	report := NewProvisioner().Teardown(ctx)
	require.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Equal(t, 3, countOps(cloud.Calls(), "DeleteSubnet"))
}

func TestTeardown_ControllerWaitTimeout(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, nil)
	ctx.Timeouts.InstanceTerminate = 20 * time.Millisecond
	stuck := &stuckInstance{FakeCloud: cloud}
	ctx.Cloud = stuck

	report := NewProvisioner().Teardown(ctx)
	require.False(t, report.OK())
	assert.Equal(t, "controller-wait", report.Failures[0].Step)
	assert.ErrorIs(t, report.Failures[0].Err, provisioning.ErrTimedOut)
	assert.Greater(t, len(report.Removed), 3, "the walk continued")
}

// stuckInstance reports every instance as shutting down forever.
type stuckInstance struct {
	*fake.FakeCloud
}

func (s *stuckInstance) DescribeInstance(_ context.Context, id string) (*awscloud.Instance, error) {
	return &awscloud.Instance{ID: id, State: awscloud.StateShuttingDown}, nil
}

func TestTeardown_PartialRecord(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := newContext(t, cloud, nil)
	require.NoError(t, provisioning.RunPhases(ctx, infrastructure.Phases()[:2]))

	report := NewProvisioner().Teardown(ctx)
	require.True(t, report.OK(), "failures: %v", report.Failures)
	assert.Empty(t, cloud.LiveResources())
	assert.Zero(t, cloud.CallCount("CancelSpotFleet"))
	assert.Zero(t, cloud.CallCount("DeleteSecurityGroup"))
}

func TestTeardown_EmptyRecord(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := newContext(t, cloud, nil)

	report := NewProvisioner().Teardown(ctx)
	assert.True(t, report.OK())
	assert.Empty(t, report.Removed)
	assert.Empty(t, cloud.Calls())
}

func TestTeardown_Metrics(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	reg := prometheus.NewRegistry()
	ctx := created(t, cloud, nil)
	ctx.Metrics = provisioning.NewMetrics(reg)

	require.True(t, NewProvisioner().Teardown(ctx).OK())
	require.True(t, NewProvisioner().Teardown(ctx).OK())

	count, err := testutil.GatherAndCount(reg, "spotcluster_teardown_steps_total")
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestTeardown_UsesRecordNotTags(t *testing.T) {
	cloud := fake.NewFakeCloud("us-east-1")
	ctx := created(t, cloud, nil)

	// Resources created outside the record are not touched.
	cloud.AddVolume("vol-foreign", "us-east-1a")
	require.True(t, NewProvisioner().Teardown(ctx).OK())
	assert.Contains(t, cloud.LiveResources(), "vol-foreign")
}

func TestReport_Err(t *testing.T) {
	r := &Report{}
	assert.NoError(t, r.Err())

	r.Failures = append(r.Failures, Failure{Step: "vpc", Resource: "vpc-1", Err: errors.New("DependencyViolation")})
	err := r.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vpc vpc-1: DependencyViolation")
	var f Failure
	assert.True(t, errors.As(err, &f))
}
