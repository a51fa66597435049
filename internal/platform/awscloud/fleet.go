package awscloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// RequestSpotFleet submits a maintain-type spot fleet request.
func (c *RealClient) RequestSpotFleet(ctx context.Context, req FleetRequest) (string, error) {
	cfg := &types.SpotFleetRequestConfigData{
		IamFleetRole:                     aws.String(req.IAMFleetRole),
		TargetCapacity:                   aws.Int32(req.TargetCapacity),
		AllocationStrategy:               types.AllocationStrategy(req.AllocationStrategy),
		Type:                             types.FleetTypeMaintain,
		ValidFrom:                        aws.Time(req.ValidFrom),
		ValidUntil:                       aws.Time(req.ValidUntil),
		TerminateInstancesWithExpiration: aws.Bool(req.TerminateAtExpiry),
		LaunchSpecifications:             toLaunchSpecifications(req.LaunchSpecs),
		TagSpecifications:                tagSpec(types.ResourceTypeSpotFleetRequest, req.Tags),
	}
	if req.SpotPrice != "" {
		cfg.SpotPrice = aws.String(req.SpotPrice)
	}

	var requestID string
	err := c.call(ctx, "RequestSpotFleet", req.IAMFleetRole, func(ctx context.Context) error {
		out, err := c.api.RequestSpotFleet(ctx, &ec2.RequestSpotFleetInput{SpotFleetRequestConfig: cfg})
		if err != nil {
			return err
		}
		requestID = aws.ToString(out.SpotFleetRequestId)
		return nil
	})
	return requestID, err
}

func toLaunchSpecifications(specs []LaunchSpec) []types.SpotFleetLaunchSpecification {
	out := make([]types.SpotFleetLaunchSpecification, 0, len(specs))
	for _, s := range specs {
		ls := types.SpotFleetLaunchSpecification{
			ImageId:          aws.String(s.ImageID),
			InstanceType:     types.InstanceType(s.InstanceType),
			SubnetId:         aws.String(strings.Join(s.SubnetIDs, ", ")),
			SecurityGroups:   []types.GroupIdentifier{{GroupId: aws.String(s.SecurityGroupID)}},
			KeyName:          aws.String(s.KeyName),
			WeightedCapacity: aws.Float64(s.WeightedCapacity),
			SpotPrice:        aws.String(s.SpotPrice),
			UserData:         aws.String(s.UserData),
		}
		if s.RootDevice != "" {
			ls.BlockDeviceMappings = []types.BlockDeviceMapping{{
				DeviceName: aws.String(s.RootDevice),
				Ebs: &types.EbsBlockDevice{
					VolumeSize:          aws.Int32(s.RootVolumeSizeGiB),
					VolumeType:          types.VolumeType(s.RootVolumeType),
					DeleteOnTermination: aws.Bool(true),
				},
			}}
		}
		out = append(out, ls)
	}
	return out
}

// CancelSpotFleet cancels a fleet request, optionally terminating its
// instances.
func (c *RealClient) CancelSpotFleet(ctx context.Context, requestID string, terminateInstances bool) error {
	return c.call(ctx, "CancelSpotFleetRequests", requestID, func(ctx context.Context) error {
		out, err := c.api.CancelSpotFleetRequests(ctx, &ec2.CancelSpotFleetRequestsInput{
			SpotFleetRequestIds: []string{requestID},
			TerminateInstances:  aws.Bool(terminateInstances),
		})
		if err != nil {
			return err
		}
		// Per-request failures come back in the body, not as an error.
		for _, item := range out.UnsuccessfulFleetRequests {
			if item.Error == nil {
				continue
			}
			return &smithy.GenericAPIError{
				Code:    string(item.Error.Code),
				Message: fmt.Sprintf("cancel %s: %s", aws.ToString(item.SpotFleetRequestId), aws.ToString(item.Error.Message)),
			}
		}
		return nil
	})
}
