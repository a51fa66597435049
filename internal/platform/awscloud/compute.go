package awscloud

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// FindNewestImage returns the most recently created available image that
// matches the filter.
func (c *RealClient) FindNewestImage(ctx context.Context, f ImageFilter) (*Image, error) {
	in := &ec2.DescribeImagesInput{
		Filters: []types.Filter{
			filter("name", f.NamePattern),
			filter("state", "available"),
		},
	}
	if f.Owner != "" {
		in.Owners = []string{f.Owner}
	}
	if f.RootVolumeType != "" {
		in.Filters = append(in.Filters, filter("block-device-mapping.volume-type", f.RootVolumeType))
	}

	var images []types.Image
	err := c.call(ctx, "DescribeImages", f.NamePattern, func(ctx context.Context) error {
		out, err := c.api.DescribeImages(ctx, in)
		if err != nil {
			return err
		}
		images = out.Images
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, wrap("DescribeImages", f.NamePattern, fmt.Errorf("no image matches: %w", ErrNotFound))
	}

	// CreationDate is ISO 8601, so lexical order is chronological.
	sort.SliceStable(images, func(i, j int) bool {
		return aws.ToString(images[i].CreationDate) > aws.ToString(images[j].CreationDate)
	})
	newest := images[0]
	return &Image{
		ID:           aws.ToString(newest.ImageId),
		Name:         aws.ToString(newest.Name),
		CreationDate: aws.ToString(newest.CreationDate),
	}, nil
}

// RunInstance launches one on-demand instance with a public address.
func (c *RealClient) RunInstance(ctx context.Context, opts RunInstanceOpts) (string, error) {
	var instanceID string
	err := c.call(ctx, "RunInstances", opts.InstanceType, func(ctx context.Context) error {
		out, err := c.api.RunInstances(ctx, &ec2.RunInstancesInput{
			ImageId:      aws.String(opts.ImageID),
			InstanceType: types.InstanceType(opts.InstanceType),
			MinCount:     aws.Int32(1),
			MaxCount:     aws.Int32(1),
			KeyName:      aws.String(opts.KeyName),
			UserData:     aws.String(base64.StdEncoding.EncodeToString([]byte(opts.UserData))),
			NetworkInterfaces: []types.InstanceNetworkInterfaceSpecification{{
				DeviceIndex:              aws.Int32(0),
				SubnetId:                 aws.String(opts.SubnetID),
				Groups:                   []string{opts.SecurityGroupID},
				AssociatePublicIpAddress: aws.Bool(true),
			}},
			TagSpecifications: tagSpec(types.ResourceTypeInstance, opts.Tags),
		})
		if err != nil {
			return err
		}
		if len(out.Instances) == 0 {
			return fmt.Errorf("no instance returned")
		}
		instanceID = aws.ToString(out.Instances[0].InstanceId)
		return nil
	})
	return instanceID, err
}

// DescribeInstance returns the current state of an instance.
func (c *RealClient) DescribeInstance(ctx context.Context, instanceID string) (*Instance, error) {
	var inst *Instance
	err := c.call(ctx, "DescribeInstances", instanceID, func(ctx context.Context) error {
		out, err := c.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}})
		if err != nil {
			return err
		}
		for _, res := range out.Reservations {
			for _, i := range res.Instances {
				inst = &Instance{
					ID:        aws.ToString(i.InstanceId),
					PrivateIP: aws.ToString(i.PrivateIpAddress),
					PublicIP:  aws.ToString(i.PublicIpAddress),
				}
				if i.State != nil {
					inst.State = string(i.State.Name)
				}
				if i.Placement != nil {
					inst.Zone = aws.ToString(i.Placement.AvailabilityZone)
				}
				return nil
			}
		}
		return ErrNotFound
	})
	return inst, err
}

// TerminateInstance terminates an instance.
func (c *RealClient) TerminateInstance(ctx context.Context, instanceID string) error {
	return c.call(ctx, "TerminateInstances", instanceID, func(ctx context.Context) error {
		_, err := c.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{instanceID}})
		return err
	})
}
