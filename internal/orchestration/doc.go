// Package orchestration runs the create and dismantle workflows for one
// cluster.
//
// It delegates the actual work to the phases in internal/provisioning and
// owns only what surrounds them: loading or starting the cluster record,
// choosing where the record lives, and fetching on-demand prices when a bid
// still has to be computed.
//
// # Workflow
//
// Create executes the following phases in order:
//  1. Validation - configuration and record agree
//  2. Infrastructure - network, gateway and route, subnets, perimeters
//  3. Compute - zone, storage, credentials, controller, bid, fleet
//
// Dismantle walks the persisted record in reverse and retires it once
// nothing is left.
//
// # Usage
//
//	orch := orchestration.New(cloud, store, orchestration.WithMetrics(m))
//	rec, err := orch.Create(ctx, cfg)
//
// Create is resumable: running it again against a partial record only
// creates what the record does not already hold.
package orchestration
