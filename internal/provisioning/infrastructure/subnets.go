package infrastructure

import (
	"fmt"
	"sort"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/record"
)

// SubnetsPhase creates one public subnet per availability zone.
type SubnetsPhase struct{}

// NewSubnetsPhase creates a new subnets phase.
func NewSubnetsPhase() *SubnetsPhase {
	return &SubnetsPhase{}
}

// Name implements the provisioning.Phase interface.
func (p *SubnetsPhase) Name() string {
	return PhaseSubnets
}

// Provision implements the provisioning.Phase interface.
func (p *SubnetsPhase) Provision(ctx *provisioning.Context) error {
	if err := requireNetwork(ctx, PhaseSubnets); err != nil {
		return err
	}
	rec := ctx.Record

	zones, err := ctx.Cloud.ListAvailabilityZones(ctx)
	if err != nil {
		return fmt.Errorf("failed to list availability zones: %w", err)
	}
	sort.Strings(zones)

	blocks, err := config.ZoneSubnets(rec.NetworkPrefix, zones)
	if err != nil {
		return fmt.Errorf("failed to plan subnets: %w", err)
	}
	ctx.Observer.Printf("[%s] Splitting %s with %d extra bits for %d zones",
		PhaseSubnets, rec.NetworkPrefix, config.SplitBits(len(zones)), len(zones))

	if rec.Subnets == nil {
		rec.Subnets = make(map[string]record.SubnetRecord)
	}

	for _, zone := range zones {
		cidr := blocks[zone]
		if existing, ok := rec.Subnets[zone]; ok {
			provisioning.LogResourceExists(ctx.Observer, PhaseSubnets, "subnet", existing.CIDR, existing.ID)
			continue
		}

		provisioning.LogResourceCreating(ctx.Observer, PhaseSubnets, "subnet", cidr)
		id, err := ctx.Cloud.CreateSubnet(ctx, rec.NetworkID, zone, cidr, ctx.Tags("subnet "+zone))
		if id != "" {
			rec.Subnets[zone] = record.SubnetRecord{ID: id, CIDR: cidr}
			if cpErr := ctx.Checkpoint(); cpErr != nil {
				return cpErr
			}
		}
		if err != nil {
			provisioning.LogResourceFailed(ctx.Observer, PhaseSubnets, "subnet", id, err)
			return fmt.Errorf("failed to create subnet %s in %s: %w", cidr, zone, err)
		}
		provisioning.LogResourceCreated(ctx.Observer, PhaseSubnets, "subnet", cidr, id)
	}
	return nil
}
