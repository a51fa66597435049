package compute

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/imamik/spotcluster/internal/provisioning"
)

// Phase names.
const (
	PhaseZone        = "zone"
	PhaseStorage     = "storage"
	PhaseCredentials = "credentials"
	PhaseController  = "controller"
	PhaseBid         = "bid"
	PhaseFleet       = "fleet"
)

// ErrMissingPrerequisite is returned when a phase runs before the phases it
// depends on have recorded their resources.
var ErrMissingPrerequisite = errors.New("prerequisite resource not recorded")

// Phases returns the compute phases in creation order. rng picks the
// controller zone when none is configured.
func Phases(rng *rand.Rand) []provisioning.Phase {
	return []provisioning.Phase{
		NewZonePhase(rng),
		NewStoragePhase(),
		NewCredentialsPhase(),
		NewControllerPhase(),
		NewBidPhase(),
		NewFleetPhase(),
	}
}

func missing(phase, what string) error {
	return fmt.Errorf("%s: %s: %w", phase, what, ErrMissingPrerequisite)
}
