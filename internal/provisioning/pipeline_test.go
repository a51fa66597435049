package provisioning

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fake "github.com/imamik/spotcluster/internal/testing"
)

type funcPhase struct {
	name string
	fn   func(*Context) error
}

func (p funcPhase) Name() string                 { return p.name }
func (p funcPhase) Provision(ctx *Context) error { return p.fn(ctx) }

func TestRunPhases_Order(t *testing.T) {
	t.Parallel()
	ctx, obs, _ := newTestContext(t, fake.NewFakeCloud("us-east-1"))

	var executed []string
	phase := func(name string) Phase {
		return funcPhase{name: name, fn: func(*Context) error {
			executed = append(executed, name)
			return nil
		}}
	}

	require.NoError(t, RunPhases(ctx, []Phase{phase("network"), phase("gateway"), phase("subnets")}))
	assert.Equal(t, []string{"network", "gateway", "subnets"}, executed)
	assert.Len(t, obs.eventsOf(EventPhaseCompleted), 3)
}

func TestRunPhases_StopsOnError(t *testing.T) {
	t.Parallel()
	ctx, obs, _ := newTestContext(t, fake.NewFakeCloud("us-east-1"))
	boom := errors.New("boom")

	var executed []string
	phases := []Phase{
		funcPhase{name: "network", fn: func(*Context) error { executed = append(executed, "network"); return nil }},
		funcPhase{name: "gateway", fn: func(*Context) error { return boom }},
		funcPhase{name: "subnets", fn: func(*Context) error { executed = append(executed, "subnets"); return nil }},
	}

	err := RunPhases(ctx, phases)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "gateway phase failed")
	assert.Equal(t, []string{"network"}, executed)
	require.Len(t, obs.eventsOf(EventPhaseFailed), 1)
	assert.Equal(t, "gateway (2/3)", obs.eventsOf(EventPhaseFailed)[0].Phase)
}

func TestRunPhases_RecordsMetrics(t *testing.T) {
	t.Parallel()
	ctx, _, _ := newTestContext(t, fake.NewFakeCloud("us-east-1"))
	reg := prometheus.NewRegistry()
	ctx.Metrics = NewMetrics(reg)

	err := RunPhases(ctx, []Phase{
		funcPhase{name: "network", fn: func(*Context) error { return nil }},
		funcPhase{name: "gateway", fn: func(*Context) error { return errors.New("boom") }},
	})
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "spotcluster_provisioning_phase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per phase and result")
}
