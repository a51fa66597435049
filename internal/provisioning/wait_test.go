package provisioning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
)

func sequence(states ...string) *awscloud.MockClient {
	i := 0
	return &awscloud.MockClient{
		DescribeInstanceFunc: func(_ context.Context, id string) (*awscloud.Instance, error) {
			s := states[min(i, len(states)-1)]
			i++
			if s == "" {
				return nil, awscloud.NotFoundError("DescribeInstances", id)
			}
			return &awscloud.Instance{ID: id, State: s}, nil
		},
	}
}

var fastWait = WaitOptions{Interval: time.Millisecond, SlowAfter: 2, Timeout: time.Second}

func TestWaitForInstanceState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		states  []string
		target  string
		outcome WaitOutcome
		polls   int
	}{
		{"already running", []string{"running"}, awscloud.StateRunning, WaitReady, 1},
		{"pending then running", []string{"pending", "pending", "running"}, awscloud.StateRunning, WaitReady, 3},
		{"not yet visible", []string{"", "pending", "running"}, awscloud.StateRunning, WaitReady, 3},
		{"terminated while starting", []string{"pending", "terminated"}, awscloud.StateRunning, WaitFailed, 2},
		{"stopped while starting", []string{"stopped"}, awscloud.StateRunning, WaitFailed, 1},
		{"terminating", []string{"shutting-down", "terminated"}, awscloud.StateTerminated, WaitReady, 2},
		{"gone counts as terminated", []string{"shutting-down", ""}, awscloud.StateTerminated, WaitReady, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := WaitForInstanceState(context.Background(), sequence(tt.states...), newRecordingObserver(), "i-1", tt.target, fastWait)
			assert.Equal(t, tt.outcome, res.Outcome, "err: %v", res.Err)
			assert.Equal(t, tt.polls, res.Polls)
		})
	}
}

func TestWaitForInstanceState_Timeout(t *testing.T) {
	t.Parallel()
	obs := newRecordingObserver()

	res := WaitForInstanceState(context.Background(), sequence("pending"), obs, "i-1", awscloud.StateRunning,
		WaitOptions{Interval: 2 * time.Millisecond, SlowAfter: 2, Timeout: 30 * time.Millisecond})

	assert.Equal(t, WaitTimedOut, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrTimedOut)
	require.NotNil(t, res.Instance)
	assert.Equal(t, "pending", res.Instance.State)

	slow := obs.eventsOf(EventWaitSlow)
	require.Len(t, slow, 1, "the slow warning is emitted once")
	assert.Equal(t, "i-1", slow[0].Resource)
	assert.Equal(t, "2", slow[0].Fields["polls"])
}

func TestWaitForInstanceState_DescribeError(t *testing.T) {
	t.Parallel()
	boom := errors.New("unauthorized")
	m := &awscloud.MockClient{
		DescribeInstanceFunc: func(context.Context, string) (*awscloud.Instance, error) { return nil, boom },
	}

	res := WaitForInstanceState(context.Background(), m, newRecordingObserver(), "i-1", awscloud.StateRunning, fastWait)
	assert.Equal(t, WaitFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, boom)
}

func TestWaitForInstanceState_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := WaitForInstanceState(ctx, sequence("pending"), newRecordingObserver(), "i-1", awscloud.StateRunning, fastWait)
	assert.Equal(t, WaitFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestWaitOutcome_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ready", WaitReady.String())
	assert.Equal(t, "timed out", WaitTimedOut.String())
	assert.Equal(t, "failed", WaitFailed.String())
}
