package compute

import (
	"fmt"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/record"
)

// StoragePhase creates the persistent data volume in the controller zone.
type StoragePhase struct{}

// NewStoragePhase creates a new storage phase.
func NewStoragePhase() *StoragePhase {
	return &StoragePhase{}
}

// Name implements the provisioning.Phase interface.
func (p *StoragePhase) Name() string {
	return PhaseStorage
}

// Provision implements the provisioning.Phase interface.
func (p *StoragePhase) Provision(ctx *provisioning.Context) error {
	rec := ctx.Record
	if rec.Storage != nil {
		provisioning.LogResourceExists(ctx.Observer, PhaseStorage, "volume", rec.Storage.Zone, rec.Storage.ID)
		return nil
	}
	if rec.ControllerZone == "" {
		return missing(PhaseStorage, "controller zone")
	}

	st := ctx.Config.Storage
	provisioning.LogResourceCreating(ctx.Observer, PhaseStorage, "volume", rec.ControllerZone)
	id, err := ctx.Cloud.CreateVolume(ctx, awscloud.VolumeOpts{
		Zone:       rec.ControllerZone,
		SizeGiB:    st.SizeGiB,
		VolumeType: st.VolumeType,
		Tags:       ctx.RoleTags("data volume", "storage"),
	})
	if err != nil {
		provisioning.LogResourceFailed(ctx.Observer, PhaseStorage, "volume", "", err)
		return fmt.Errorf("failed to create %d GiB volume in %s: %w", st.SizeGiB, rec.ControllerZone, err)
	}

	rec.Storage = &record.StorageVolumeRecord{
		ID:             id,
		Zone:           rec.ControllerZone,
		MountPath:      st.MountPath,
		DevicePath:     st.DevicePath,
		SizeGiB:        st.SizeGiB,
		VolumeType:     st.VolumeType,
		KeepOnTeardown: st.KeepOnTeardown,
	}
	if err := ctx.Checkpoint(); err != nil {
		return err
	}
	provisioning.LogResourceCreated(ctx.Observer, PhaseStorage, "volume", rec.ControllerZone, id)
	return nil
}
