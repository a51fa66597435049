package infrastructure

import (
	"errors"
	"fmt"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/provisioning"
)

// ErrNoNetwork is returned by phases that need the VPC when none is recorded.
var ErrNoNetwork = errors.New("cluster network has not been created")

func errNoNetwork(phase string) error {
	return fmt.Errorf("%s: %w", phase, ErrNoNetwork)
}

// NetworkPhase creates the cluster VPC.
type NetworkPhase struct{}

// NewNetworkPhase creates a new network phase.
func NewNetworkPhase() *NetworkPhase {
	return &NetworkPhase{}
}

// Name implements the provisioning.Phase interface.
func (p *NetworkPhase) Name() string {
	return PhaseNetwork
}

// Provision implements the provisioning.Phase interface.
func (p *NetworkPhase) Provision(ctx *provisioning.Context) error {
	rec := ctx.Record
	if rec.NetworkID != "" {
		provisioning.LogResourceExists(ctx.Observer, PhaseNetwork, "vpc", rec.NetworkPrefix, rec.NetworkID)
		return nil
	}

	prefix := ctx.Config.NetworkPrefix
	provisioning.LogResourceCreating(ctx.Observer, PhaseNetwork, "vpc", prefix)
	vpcID, err := ctx.Cloud.CreateVPC(ctx, prefix, ctx.Tags("vpc"))
	if vpcID != "" {
		// Record before the attribute error surfaces so teardown can find it.
		rec.NetworkID = vpcID
		rec.NetworkPrefix = prefix
		if cpErr := ctx.Checkpoint(); cpErr != nil {
			return cpErr
		}
	}
	if err != nil {
		provisioning.LogResourceFailed(ctx.Observer, PhaseNetwork, "vpc", vpcID, err)
		return fmt.Errorf("failed to create vpc: %w", err)
	}

	provisioning.LogResourceCreated(ctx.Observer, PhaseNetwork, "vpc", prefix, vpcID)
	return nil
}

// GatewayPhase connects the VPC to the internet: gateway, main route table
// tags and the default route.
type GatewayPhase struct{}

// NewGatewayPhase creates a new gateway phase.
func NewGatewayPhase() *GatewayPhase {
	return &GatewayPhase{}
}

// Name implements the provisioning.Phase interface.
func (p *GatewayPhase) Name() string {
	return PhaseGateway
}

// Provision implements the provisioning.Phase interface.
func (p *GatewayPhase) Provision(ctx *provisioning.Context) error {
	if err := requireNetwork(ctx, PhaseGateway); err != nil {
		return err
	}
	rec := ctx.Record
	obs := ctx.Observer

	if rec.GatewayID == "" {
		provisioning.LogResourceCreating(obs, PhaseGateway, "internet-gateway", ctx.Config.ClusterName)
		igwID, err := ctx.Cloud.CreateInternetGateway(ctx, ctx.Tags("gateway"))
		if err != nil {
			provisioning.LogResourceFailed(obs, PhaseGateway, "internet-gateway", "", err)
			return fmt.Errorf("failed to create internet gateway: %w", err)
		}
		rec.GatewayID = igwID
		if err := ctx.Checkpoint(); err != nil {
			return err
		}
		provisioning.LogResourceCreated(obs, PhaseGateway, "internet-gateway", ctx.Config.ClusterName, igwID)
	}

	if err := ctx.Cloud.AttachInternetGateway(ctx, rec.GatewayID, rec.NetworkID); err != nil && !awscloud.IsAlreadyExists(err) {
		return fmt.Errorf("failed to attach internet gateway %s: %w", rec.GatewayID, err)
	}

	if rec.RouteTableID == "" {
		rtbID, err := ctx.Cloud.MainRouteTable(ctx, rec.NetworkID)
		if err != nil {
			return fmt.Errorf("failed to find main route table: %w", err)
		}
		rec.RouteTableID = rtbID
		if err := ctx.Checkpoint(); err != nil {
			return err
		}
	}

	// The main route table is created with the VPC, so it is tagged
	// rather than created.
	if err := ctx.Cloud.CreateTags(ctx, []string{rec.RouteTableID}, ctx.Tags("route table")); err != nil {
		return fmt.Errorf("failed to tag route table %s: %w", rec.RouteTableID, err)
	}

	if err := ctx.Cloud.CreateDefaultRoute(ctx, rec.RouteTableID, rec.GatewayID); err != nil {
		if !awscloud.IsAlreadyExists(err) {
			return fmt.Errorf("failed to route %s through %s: %w", rec.RouteTableID, rec.GatewayID, err)
		}
		provisioning.LogResourceExists(obs, PhaseGateway, "route", "default", rec.RouteTableID)
		return nil
	}

	provisioning.LogResourceCreated(obs, PhaseGateway, "route", "default", rec.RouteTableID)
	return nil
}
