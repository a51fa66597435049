// Package infrastructure provisions the cluster network on EC2.
//
// It creates the VPC, its internet gateway and default route, one public
// subnet per availability zone, and the three security perimeters
// (controller, worker, storage) with their rules. Every created resource is
// written to the cluster record and checkpointed before the next call that
// depends on it, so an interrupted run resumes where it stopped.
package infrastructure
