// Package record holds the durable cluster record.
//
// A ClusterRecord starts empty and grows field by field as each provider call
// succeeds during creation. It is checkpointed through a Store after every
// mutation, so an interrupted run leaves a record that teardown can walk.
// Every resource field is optional: an empty field means the resource was
// never created or has already been removed.
//
// Security group rules are stored verbatim as tagged Rule values because
// teardown must revoke exactly what was granted.
package record
