// Package keygen generates the SSH key pair used to reach cluster instances.
//
// The private half is written to disk readable by its owner only, the
// public half is returned in authorized_keys format for import into EC2.
package keygen
