package infrastructure

import (
	"github.com/imamik/spotcluster/internal/provisioning"
)

// Phase names.
const (
	PhaseNetwork    = "network"
	PhaseGateway    = "gateway"
	PhaseSubnets    = "subnets"
	PhasePerimeters = "perimeters"
)

// Phases returns the network phases in creation order.
func Phases() []provisioning.Phase {
	return []provisioning.Phase{
		NewNetworkPhase(),
		NewGatewayPhase(),
		NewSubnetsPhase(),
		NewPerimetersPhase(),
	}
}

// requireNetwork fails a phase that runs before the VPC exists.
func requireNetwork(ctx *provisioning.Context, phase string) error {
	if ctx.Record.NetworkID == "" {
		return errNoNetwork(phase)
	}
	return nil
}
