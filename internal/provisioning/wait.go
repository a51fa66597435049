package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
)

// ErrTimedOut is returned when a wait exceeds its timeout.
var ErrTimedOut = errors.New("timed out waiting for instance state")

// WaitOutcome is how a wait ended.
type WaitOutcome int

const (
	// WaitReady means the target state was reached.
	WaitReady WaitOutcome = iota
	// WaitTimedOut means the timeout elapsed first.
	WaitTimedOut
	// WaitFailed means the target became unreachable or describe failed.
	WaitFailed
)

func (o WaitOutcome) String() string {
	switch o {
	case WaitReady:
		return "ready"
	case WaitTimedOut:
		return "timed out"
	case WaitFailed:
		return "failed"
	}
	return "unknown"
}

// WaitOptions tunes WaitForInstanceState.
type WaitOptions struct {
	Interval  time.Duration
	SlowAfter int
	Timeout   time.Duration
}

// WaitResult is the outcome of a wait.
type WaitResult struct {
	Outcome WaitOutcome
	// Instance is the last observed state, nil if never described.
	Instance *awscloud.Instance
	Polls    int
	// Err is ErrTimedOut, the describe failure, or why the target is unreachable.
	Err error
}

// unreachable lists, per target, the states from which the target cannot
// be reached.
var unreachable = map[string]map[string]bool{
	awscloud.StateRunning: {
		awscloud.StateShuttingDown: true,
		awscloud.StateTerminated:   true,
		awscloud.StateStopping:     true,
		awscloud.StateStopped:      true,
	},
	awscloud.StateTerminated: {},
}

// WaitForInstanceState polls an instance until it reaches target. One
// advisory EventWaitSlow is emitted after opts.SlowAfter polls. While waiting
// for termination a NotFound describe counts as reached; while waiting for
// anything else it is polled through.
func WaitForInstanceState(ctx context.Context, compute awscloud.ComputeManager, obs Observer, instanceID, target string, opts WaitOptions) WaitResult {
	var res WaitResult
	deadline := time.NewTimer(opts.Timeout)
	defer deadline.Stop()

	for {
		inst, err := compute.DescribeInstance(ctx, instanceID)
		res.Polls++
		switch {
		case err != nil && awscloud.IsNotFound(err):
			if target == awscloud.StateTerminated {
				res.Outcome = WaitReady
				return res
			}
		case err != nil:
			res.Outcome, res.Err = WaitFailed, err
			return res
		default:
			res.Instance = inst
			if inst.State == target {
				res.Outcome = WaitReady
				return res
			}
			if unreachable[target][inst.State] {
				res.Outcome = WaitFailed
				res.Err = fmt.Errorf("instance %s is %s, cannot become %s", instanceID, inst.State, target)
				return res
			}
		}

		if opts.SlowAfter > 0 && res.Polls == opts.SlowAfter {
			obs.Event(Event{
				Type:     EventWaitSlow,
				Resource: instanceID,
				Message:  fmt.Sprintf("still waiting for %s", target),
				Fields: map[string]string{
					"polls": strconv.Itoa(res.Polls),
					"state": stateOf(res.Instance),
				},
			})
		}

		poll := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			poll.Stop()
			res.Outcome, res.Err = WaitFailed, ctx.Err()
			return res
		case <-deadline.C:
			poll.Stop()
			res.Outcome = WaitTimedOut
			res.Err = fmt.Errorf("%w: %s did not become %s within %v", ErrTimedOut, instanceID, target, opts.Timeout)
			return res
		case <-poll.C:
		}
	}
}

// WaitForInstance waits with the context's timeouts.
func (c *Context) WaitForInstance(instanceID, target string, timeout time.Duration) WaitResult {
	return WaitForInstanceState(c, c.Cloud, c.Observer, instanceID, target, WaitOptions{
		Interval:  c.Timeouts.PollInterval,
		SlowAfter: c.Timeouts.SlowAfterPolls,
		Timeout:   timeout,
	})
}

func stateOf(inst *awscloud.Instance) string {
	if inst == nil {
		return "unknown"
	}
	return inst.State
}
