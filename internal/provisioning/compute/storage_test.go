package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fake "github.com/imamik/spotcluster/internal/testing"
)

func TestStoragePhase(t *testing.T) {
	tests := []struct {
		name string
		keep bool
	}{
		{"kept on teardown", true},
		{"deleted on teardown", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cloud := fake.NewFakeCloud("us-east-1")
			ctx, _ := newContext(t, cloud, fake.NewConfigBuilder().WithStorage(32, tt.keep).WithControllerZone("us-east-1b"))
			upTo(t, ctx, PhaseStorage)

			require.NoError(t, NewStoragePhase().Provision(ctx))
			vol := ctx.Record.Storage
			require.NotNil(t, vol)
			assert.Equal(t, "us-east-1b", vol.Zone)
			assert.Equal(t, int32(32), vol.SizeGiB)
			assert.Equal(t, "gp2", vol.VolumeType)
			assert.Equal(t, "/dev/xvdd", vol.DevicePath)
			assert.Equal(t, "/ebsdata", vol.MountPath)
			assert.Equal(t, tt.keep, vol.KeepOnTeardown)
			assert.Equal(t, "storage", cloud.Tags(vol.ID)["spotcluster:role"])

			require.NoError(t, NewStoragePhase().Provision(ctx))
			assert.Equal(t, 1, cloud.CallCount("CreateVolume"))
		})
	}
}
