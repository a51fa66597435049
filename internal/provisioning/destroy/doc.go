// Package destroy dismantles a cluster from its persisted record.
//
// Resources are removed in reverse dependency order: the spot fleet and
// the controller first, then the data volume, security rules and groups,
// subnets, routing, and finally the VPC. A resource that is already gone
// counts as missing rather than failed, so a teardown can be repeated on
// the same record until it reports no failures.
package destroy
