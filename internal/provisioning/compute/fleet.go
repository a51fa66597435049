package compute

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/templates"
)

// FleetPhase submits the capacity-maintaining spot fleet request.
type FleetPhase struct{}

// NewFleetPhase creates a new fleet phase.
func NewFleetPhase() *FleetPhase {
	return &FleetPhase{}
}

// Name implements the provisioning.Phase interface.
func (p *FleetPhase) Name() string {
	return PhaseFleet
}

// Provision implements the provisioning.Phase interface.
func (p *FleetPhase) Provision(ctx *provisioning.Context) error {
	rec := ctx.Record
	if rec.FleetRequestID != "" {
		provisioning.LogResourceExists(ctx.Observer, PhaseFleet, "spot-fleet", ctx.Config.ClusterName, rec.FleetRequestID)
		return nil
	}
	switch {
	case rec.Bid == nil || len(rec.Bid.PerType) == 0:
		return missing(PhaseFleet, "bid")
	case rec.ControllerPrivateIP == "":
		return missing(PhaseFleet, "controller address")
	case rec.ImageID == "":
		return missing(PhaseFleet, "image")
	case rec.Perimeters.Worker == nil:
		return missing(PhaseFleet, "worker perimeter")
	case len(rec.Subnets) == 0:
		return missing(PhaseFleet, "subnets")
	case rec.Storage == nil:
		return missing(PhaseFleet, "data volume")
	case rec.KeyPairName == "":
		return missing(PhaseFleet, "key pair")
	}

	req, err := p.BuildRequest(ctx)
	if err != nil {
		return err
	}

	provisioning.LogResourceCreating(ctx.Observer, PhaseFleet, "spot-fleet", ctx.Config.ClusterName)
	id, err := ctx.Cloud.RequestSpotFleet(ctx, req)
	if err != nil {
		provisioning.LogResourceFailed(ctx.Observer, PhaseFleet, "spot-fleet", "", err)
		return fmt.Errorf("failed to request spot fleet: %w", err)
	}

	rec.FleetRequestID = id
	if err := ctx.Checkpoint(); err != nil {
		return err
	}
	provisioning.LogResourceCreated(ctx.Observer, PhaseFleet, "spot-fleet", ctx.Config.ClusterName, id)
	ctx.Observer.Printf("[%s] Requested %d units at up to %s per unit until %s",
		PhaseFleet, req.TargetCapacity, req.SpotPrice, req.ValidUntil.Format("2006-01-02"))
	return nil
}

// BuildRequest assembles the fleet request from the record: one launch
// specification per type that received a bid.
func (p *FleetPhase) BuildRequest(ctx *provisioning.Context) (awscloud.FleetRequest, error) {
	rec := ctx.Record
	fc := ctx.Config.Fleet

	script, err := ctx.Templates.Worker(templates.WorkerData{
		MountPath:    rec.Storage.MountPath,
		ControllerIP: rec.ControllerPrivateIP,
	})
	if err != nil {
		return awscloud.FleetRequest{}, err
	}
	userData := base64.StdEncoding.EncodeToString([]byte(script))

	weights := fc.Weights()
	types := lo.Keys(rec.Bid.PerType)
	sort.Strings(types)

	specs := lo.Map(types, func(t string, _ int) awscloud.LaunchSpec {
		return awscloud.LaunchSpec{
			InstanceType:      t,
			ImageID:           rec.ImageID,
			SubnetIDs:         rec.SubnetIDs(),
			SecurityGroupID:   rec.Perimeters.Worker.ID,
			KeyName:           rec.KeyPairName,
			WeightedCapacity:  weights[t],
			SpotPrice:         rec.Bid.PerType[t],
			UserData:          userData,
			RootDevice:        fc.RootDevice,
			RootVolumeSizeGiB: fc.RootVolumeSizeGiB,
			RootVolumeType:    fc.RootVolumeType,
		}
	})

	now := ctx.Clock().UTC()
	return awscloud.FleetRequest{
		IAMFleetRole:       fc.IAMFleetRole,
		AllocationStrategy: fc.AllocationStrategy,
		TargetCapacity:     fc.TargetCapacity,
		SpotPrice:          rec.Bid.Ceiling,
		ValidFrom:          now,
		ValidUntil:         now.Add(fc.Validity),
		TerminateAtExpiry:  true,
		LaunchSpecs:        specs,
		Tags:               ctx.RoleTags("spot fleet", "worker"),
	}, nil
}
