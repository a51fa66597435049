package compute

import (
	"fmt"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/templates"
	"github.com/imamik/spotcluster/internal/util/netutil"
)

// LoginUser is the default account of the controller image.
const LoginUser = "ec2-user"

// ControllerPhase launches the on-demand controller, waits for it to run
// and attaches the data volume.
type ControllerPhase struct{}

// NewControllerPhase creates a new controller phase.
func NewControllerPhase() *ControllerPhase {
	return &ControllerPhase{}
}

// Name implements the provisioning.Phase interface.
func (p *ControllerPhase) Name() string {
	return PhaseController
}

// Provision implements the provisioning.Phase interface.
func (p *ControllerPhase) Provision(ctx *provisioning.Context) error {
	rec := ctx.Record
	subnet, ok := rec.Subnets[rec.ControllerZone]
	switch {
	case rec.ControllerZone == "" || !ok:
		return missing(PhaseController, "controller zone subnet")
	case rec.Perimeters.Controller == nil:
		return missing(PhaseController, "controller perimeter")
	case rec.Storage == nil:
		return missing(PhaseController, "data volume")
	case rec.KeyPairName == "":
		return missing(PhaseController, "key pair")
	}

	if rec.ControllerInstanceID == "" {
		if err := p.launch(ctx, subnet.ID); err != nil {
			return err
		}
	} else {
		provisioning.LogResourceExists(ctx.Observer, PhaseController, "instance", rec.ControllerZone, rec.ControllerInstanceID)
	}

	res := ctx.WaitForInstance(rec.ControllerInstanceID, awscloud.StateRunning, ctx.Timeouts.InstanceRunning)
	if res.Outcome != provisioning.WaitReady {
		return fmt.Errorf("controller %s %s: %w", rec.ControllerInstanceID, res.Outcome, res.Err)
	}
	rec.ControllerPrivateIP = res.Instance.PrivateIP
	rec.ControllerPublicIP = res.Instance.PublicIP
	if err := ctx.Checkpoint(); err != nil {
		return err
	}
	ctx.Observer.Printf("[%s] Controller %s running at %s (private %s)",
		PhaseController, rec.ControllerInstanceID, rec.ControllerPublicIP, rec.ControllerPrivateIP)

	if err := p.attachStorage(ctx); err != nil {
		return err
	}

	if rec.ControllerPublicIP == "" {
		return nil
	}
	if ctx.Config.Controller.WaitForSSH {
		ctx.Observer.Printf("[%s] Waiting for SSH on %s...", PhaseController, rec.ControllerPublicIP)
		if err := netutil.WaitForPort(ctx, rec.ControllerPublicIP, netutil.SSHPort,
			ctx.Timeouts.SSHReady, ctx.Timeouts.PollInterval, netutil.WithDial(ctx.Dial)); err != nil {
			return fmt.Errorf("controller %s: %w", rec.ControllerInstanceID, err)
		}
	}
	ctx.Observer.Printf("[%s] Connect with: ssh -i %s %s@%s",
		PhaseController, rec.PrivateKeyPath, LoginUser, rec.ControllerPublicIP)
	return nil
}

func (p *ControllerPhase) launch(ctx *provisioning.Context, subnetID string) error {
	rec := ctx.Record
	cc := ctx.Config.Controller

	if rec.ImageID == "" {
		img, err := ctx.Cloud.FindNewestImage(ctx, awscloud.ImageFilter{
			NamePattern:    cc.ImageNamePattern,
			Owner:          cc.ImageOwner,
			RootVolumeType: cc.RootVolumeType,
		})
		if err != nil {
			return fmt.Errorf("failed to find image matching %q: %w", cc.ImageNamePattern, err)
		}
		rec.ImageID = img.ID
		ctx.Observer.Printf("[%s] Using image %s (%s)", PhaseController, img.ID, img.Name)
	}

	userData, err := ctx.Templates.Controller(templates.ControllerData{
		DevicePath:    rec.Storage.DevicePath,
		MountPath:     rec.Storage.MountPath,
		NetworkPrefix: rec.NetworkPrefix,
	})
	if err != nil {
		return err
	}

	provisioning.LogResourceCreating(ctx.Observer, PhaseController, "instance", cc.InstanceType)
	id, err := ctx.Cloud.RunInstance(ctx, awscloud.RunInstanceOpts{
		ImageID:         rec.ImageID,
		InstanceType:    cc.InstanceType,
		SubnetID:        subnetID,
		SecurityGroupID: rec.Perimeters.Controller.ID,
		KeyName:         rec.KeyPairName,
		UserData:        userData,
		Tags:            ctx.RoleTags("controller", "controller"),
	})
	if err != nil {
		provisioning.LogResourceFailed(ctx.Observer, PhaseController, "instance", "", err)
		return fmt.Errorf("failed to launch controller: %w", err)
	}

	rec.ControllerInstanceID = id
	if err := ctx.Checkpoint(); err != nil {
		return err
	}
	provisioning.LogResourceCreated(ctx.Observer, PhaseController, "instance", cc.InstanceType, id)
	return nil
}

func (p *ControllerPhase) attachStorage(ctx *provisioning.Context) error {
	rec := ctx.Record
	vol := rec.Storage
	if vol.AttachedTo == rec.ControllerInstanceID {
		return nil
	}

	if err := ctx.Cloud.AttachVolume(ctx, vol.ID, rec.ControllerInstanceID, vol.DevicePath); err != nil {
		return fmt.Errorf("failed to attach volume %s to %s: %w", vol.ID, rec.ControllerInstanceID, err)
	}
	vol.AttachedTo = rec.ControllerInstanceID
	if err := ctx.Checkpoint(); err != nil {
		return err
	}
	ctx.Observer.Printf("[%s] Attached volume %s at %s", PhaseController, vol.ID, vol.DevicePath)
	return nil
}
