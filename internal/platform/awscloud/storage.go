package awscloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// CreateVolume creates a block volume.
func (c *RealClient) CreateVolume(ctx context.Context, opts VolumeOpts) (string, error) {
	var volumeID string
	err := c.call(ctx, "CreateVolume", opts.Zone, func(ctx context.Context) error {
		out, err := c.api.CreateVolume(ctx, &ec2.CreateVolumeInput{
			AvailabilityZone:  aws.String(opts.Zone),
			Size:              aws.Int32(opts.SizeGiB),
			VolumeType:        types.VolumeType(opts.VolumeType),
			TagSpecifications: tagSpec(types.ResourceTypeVolume, opts.Tags),
		})
		if err != nil {
			return err
		}
		volumeID = aws.ToString(out.VolumeId)
		return nil
	})
	return volumeID, err
}

// AttachVolume attaches a volume to an instance at device.
func (c *RealClient) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	return c.call(ctx, "AttachVolume", volumeID, func(ctx context.Context) error {
		_, err := c.api.AttachVolume(ctx, &ec2.AttachVolumeInput{
			VolumeId:   aws.String(volumeID),
			InstanceId: aws.String(instanceID),
			Device:     aws.String(device),
		})
		return err
	})
}

// DeleteVolume deletes a volume.
func (c *RealClient) DeleteVolume(ctx context.Context, volumeID string) error {
	return c.call(ctx, "DeleteVolume", volumeID, func(ctx context.Context) error {
		_, err := c.api.DeleteVolume(ctx, &ec2.DeleteVolumeInput{VolumeId: aws.String(volumeID)})
		return err
	})
}

// KeyPairExists reports whether a key pair is registered.
func (c *RealClient) KeyPairExists(ctx context.Context, name string) (bool, error) {
	err := c.call(ctx, "DescribeKeyPairs", name, func(ctx context.Context) error {
		_, err := c.api.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{KeyNames: []string{name}})
		return err
	})
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ImportKeyPair registers a public key.
func (c *RealClient) ImportKeyPair(ctx context.Context, name string, publicKey []byte, tags map[string]string) error {
	return c.call(ctx, "ImportKeyPair", name, func(ctx context.Context) error {
		_, err := c.api.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
			KeyName:           aws.String(name),
			PublicKeyMaterial: publicKey,
			TagSpecifications: tagSpec(types.ResourceTypeKeyPair, tags),
		})
		return err
	})
}
