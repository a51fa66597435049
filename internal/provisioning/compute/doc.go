// Package compute places the controller and requests spot capacity.
//
// Its phases run after the network exists: pick the controller zone, create
// the data volume, provide an access key pair, launch and wait for the
// controller, compute bids and submit the spot fleet request.
package compute
