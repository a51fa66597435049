// Package provisioning provides shared types, interfaces, and orchestration for cluster provisioning.
//
// # Subpackages
//
//   - infrastructure/: Network, Gateway, Subnets, Security Perimeters
//   - compute/: Zone selection, Storage, Credentials, Controller, Bid, Fleet
//   - destroy/: Resource teardown in reverse dependency order
//
// # Core Types
//
// Context carries configuration, the cluster record and its store, the cloud
// provider, and the observer. Phase defines a provisioning step with Name()
// and Provision() methods. Phases write every created resource into the
// record and call Context.Checkpoint so an interrupted run can be resumed or
// torn down.
package provisioning
