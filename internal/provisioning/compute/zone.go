package compute

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/provisioning"
)

// ZonePhase chooses the availability zone of the controller and its volume.
type ZonePhase struct {
	rng *rand.Rand
}

// NewZonePhase creates a zone phase. A nil rng is seeded from the runtime.
func NewZonePhase(rng *rand.Rand) *ZonePhase {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &ZonePhase{rng: rng}
}

// Name implements the provisioning.Phase interface.
func (p *ZonePhase) Name() string {
	return PhaseZone
}

// Provision implements the provisioning.Phase interface.
func (p *ZonePhase) Provision(ctx *provisioning.Context) error {
	rec := ctx.Record
	if rec.ControllerZone != "" {
		ctx.Observer.Printf("[%s] Controller zone already chosen: %s", PhaseZone, rec.ControllerZone)
		return nil
	}
	if len(rec.Subnets) == 0 {
		return missing(PhaseZone, "subnets")
	}

	available, err := ctx.Cloud.ListAvailabilityZones(ctx)
	if err != nil {
		return fmt.Errorf("failed to list availability zones: %w", err)
	}

	// Only zones that received a subnet can host the controller.
	var candidates []string
	for _, zone := range available {
		if _, ok := rec.Subnets[zone]; ok {
			candidates = append(candidates, zone)
		}
	}
	sort.Strings(candidates)
	if len(candidates) == 0 {
		return fmt.Errorf("%s: none of the available zones %v has a cluster subnet", PhaseZone, available)
	}

	zone := ctx.Config.Controller.Zone
	if zone != "" {
		if !slices.Contains(candidates, zone) {
			return &config.ConfigurationError{
				Field:  "controller.zone",
				Reason: fmt.Sprintf("%s is not one of %v", zone, candidates),
			}
		}
		ctx.Observer.Printf("[%s] Using configured controller zone %s", PhaseZone, zone)
	} else {
		zone = candidates[p.rng.IntN(len(candidates))]
		ctx.Observer.Printf("[%s] Randomly chose controller zone %s from %v", PhaseZone, zone, candidates)
	}

	rec.ControllerZone = zone
	return ctx.Checkpoint()
}
