package awscloud

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/spotcluster/internal/record"
)

// CreateVPC creates a VPC and enables DNS support and hostnames.
func (c *RealClient) CreateVPC(ctx context.Context, cidr string, tags map[string]string) (string, error) {
	var vpcID string
	err := c.call(ctx, "CreateVpc", cidr, func(ctx context.Context) error {
		out, err := c.api.CreateVpc(ctx, &ec2.CreateVpcInput{
			CidrBlock:         aws.String(cidr),
			InstanceTenancy:   types.TenancyDefault,
			TagSpecifications: tagSpec(types.ResourceTypeVpc, tags),
		})
		if err != nil {
			return err
		}
		vpcID = aws.ToString(out.Vpc.VpcId)
		return nil
	})
	if err != nil {
		return "", err
	}

	// The API accepts one attribute per call.
	for _, in := range []*ec2.ModifyVpcAttributeInput{
		{VpcId: aws.String(vpcID), EnableDnsSupport: &types.AttributeBooleanValue{Value: aws.Bool(true)}},
		{VpcId: aws.String(vpcID), EnableDnsHostnames: &types.AttributeBooleanValue{Value: aws.Bool(true)}},
	} {
		err := c.call(ctx, "ModifyVpcAttribute", vpcID, func(ctx context.Context) error {
			_, err := c.api.ModifyVpcAttribute(ctx, in)
			return err
		})
		if err != nil {
			return vpcID, err
		}
	}
	return vpcID, nil
}

// DeleteVPC deletes a VPC.
func (c *RealClient) DeleteVPC(ctx context.Context, vpcID string) error {
	return c.call(ctx, "DeleteVpc", vpcID, func(ctx context.Context) error {
		_, err := c.api.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: aws.String(vpcID)})
		return err
	})
}

// CreateInternetGateway creates an internet gateway.
func (c *RealClient) CreateInternetGateway(ctx context.Context, tags map[string]string) (string, error) {
	var igwID string
	err := c.call(ctx, "CreateInternetGateway", "", func(ctx context.Context) error {
		out, err := c.api.CreateInternetGateway(ctx, &ec2.CreateInternetGatewayInput{
			TagSpecifications: tagSpec(types.ResourceTypeInternetGateway, tags),
		})
		if err != nil {
			return err
		}
		igwID = aws.ToString(out.InternetGateway.InternetGatewayId)
		return nil
	})
	return igwID, err
}

// AttachInternetGateway attaches a gateway to a VPC.
func (c *RealClient) AttachInternetGateway(ctx context.Context, igwID, vpcID string) error {
	return c.call(ctx, "AttachInternetGateway", igwID, func(ctx context.Context) error {
		_, err := c.api.AttachInternetGateway(ctx, &ec2.AttachInternetGatewayInput{
			InternetGatewayId: aws.String(igwID),
			VpcId:             aws.String(vpcID),
		})
		return err
	})
}

// DetachInternetGateway detaches a gateway from a VPC.
func (c *RealClient) DetachInternetGateway(ctx context.Context, igwID, vpcID string) error {
	return c.call(ctx, "DetachInternetGateway", igwID, func(ctx context.Context) error {
		_, err := c.api.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
			InternetGatewayId: aws.String(igwID),
			VpcId:             aws.String(vpcID),
		})
		return err
	})
}

// DeleteInternetGateway deletes a gateway.
func (c *RealClient) DeleteInternetGateway(ctx context.Context, igwID string) error {
	return c.call(ctx, "DeleteInternetGateway", igwID, func(ctx context.Context) error {
		_, err := c.api.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{
			InternetGatewayId: aws.String(igwID),
		})
		return err
	})
}

// MainRouteTable returns the main route table of a VPC.
func (c *RealClient) MainRouteTable(ctx context.Context, vpcID string) (string, error) {
	var rtbID string
	err := c.call(ctx, "DescribeRouteTables", vpcID, func(ctx context.Context) error {
		out, err := c.api.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{
			Filters: []types.Filter{filter("vpc-id", vpcID), filter("association.main", "true")},
		})
		if err != nil {
			return err
		}
		if len(out.RouteTables) == 0 {
			return fmt.Errorf("main route table of %s: %w", vpcID, ErrNotFound)
		}
		rtbID = aws.ToString(out.RouteTables[0].RouteTableId)
		return nil
	})
	return rtbID, err
}

// CreateDefaultRoute routes 0.0.0.0/0 through the gateway.
func (c *RealClient) CreateDefaultRoute(ctx context.Context, routeTableID, igwID string) error {
	return c.call(ctx, "CreateRoute", routeTableID, func(ctx context.Context) error {
		_, err := c.api.CreateRoute(ctx, &ec2.CreateRouteInput{
			RouteTableId:         aws.String(routeTableID),
			DestinationCidrBlock: aws.String(record.AnyIPv4),
			GatewayId:            aws.String(igwID),
		})
		return err
	})
}

// DeleteDefaultRoute removes the 0.0.0.0/0 route.
func (c *RealClient) DeleteDefaultRoute(ctx context.Context, routeTableID string) error {
	return c.call(ctx, "DeleteRoute", routeTableID, func(ctx context.Context) error {
		_, err := c.api.DeleteRoute(ctx, &ec2.DeleteRouteInput{
			RouteTableId:         aws.String(routeTableID),
			DestinationCidrBlock: aws.String(record.AnyIPv4),
		})
		return err
	})
}

// ListAvailabilityZones returns the available zones of the region, sorted.
func (c *RealClient) ListAvailabilityZones(ctx context.Context) ([]string, error) {
	var zones []string
	err := c.call(ctx, "DescribeAvailabilityZones", c.region, func(ctx context.Context) error {
		out, err := c.api.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{
			Filters: []types.Filter{filter("state", "available")},
		})
		if err != nil {
			return err
		}
		zones = zones[:0]
		for _, z := range out.AvailabilityZones {
			zones = append(zones, aws.ToString(z.ZoneName))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return nil, wrap("DescribeAvailabilityZones", c.region, errors.New("no available zones"))
	}
	sort.Strings(zones)
	return zones, nil
}

// CreateSubnet creates a subnet with public address assignment on launch.
func (c *RealClient) CreateSubnet(ctx context.Context, vpcID, zone, cidr string, tags map[string]string) (string, error) {
	var subnetID string
	err := c.call(ctx, "CreateSubnet", cidr, func(ctx context.Context) error {
		out, err := c.api.CreateSubnet(ctx, &ec2.CreateSubnetInput{
			VpcId:             aws.String(vpcID),
			CidrBlock:         aws.String(cidr),
			AvailabilityZone:  aws.String(zone),
			TagSpecifications: tagSpec(types.ResourceTypeSubnet, tags),
		})
		if err != nil {
			return err
		}
		subnetID = aws.ToString(out.Subnet.SubnetId)
		return nil
	})
	if err != nil {
		return "", err
	}

	err = c.call(ctx, "ModifySubnetAttribute", subnetID, func(ctx context.Context) error {
		_, err := c.api.ModifySubnetAttribute(ctx, &ec2.ModifySubnetAttributeInput{
			SubnetId:            aws.String(subnetID),
			MapPublicIpOnLaunch: &types.AttributeBooleanValue{Value: aws.Bool(true)},
		})
		return err
	})
	return subnetID, err
}

// ListSubnets returns every subnet of a VPC.
func (c *RealClient) ListSubnets(ctx context.Context, vpcID string) ([]string, error) {
	var ids []string
	paginator := ec2.NewDescribeSubnetsPaginator(c.api, &ec2.DescribeSubnetsInput{
		Filters: []types.Filter{filter("vpc-id", vpcID)},
	})
	for paginator.HasMorePages() {
		var page *ec2.DescribeSubnetsOutput
		err := c.call(ctx, "DescribeSubnets", vpcID, func(ctx context.Context) error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, s := range page.Subnets {
			ids = append(ids, aws.ToString(s.SubnetId))
		}
	}
	return ids, nil
}

// DeleteSubnet deletes a subnet.
func (c *RealClient) DeleteSubnet(ctx context.Context, subnetID string) error {
	return c.call(ctx, "DeleteSubnet", subnetID, func(ctx context.Context) error {
		_, err := c.api.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: aws.String(subnetID)})
		return err
	})
}
