package awscloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/spotcluster/internal/record"
)

// CreateSecurityGroup creates a security group in a VPC.
func (c *RealClient) CreateSecurityGroup(ctx context.Context, vpcID, name, description string, tags map[string]string) (string, error) {
	var groupID string
	err := c.call(ctx, "CreateSecurityGroup", name, func(ctx context.Context) error {
		out, err := c.api.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
			GroupName:         aws.String(name),
			Description:       aws.String(description),
			VpcId:             aws.String(vpcID),
			TagSpecifications: tagSpec(types.ResourceTypeSecurityGroup, tags),
		})
		if err != nil {
			return err
		}
		groupID = aws.ToString(out.GroupId)
		return nil
	})
	return groupID, err
}

// AuthorizeIngress grants inbound rules. An empty list is a no-op.
func (c *RealClient) AuthorizeIngress(ctx context.Context, groupID string, rules []record.Rule) error {
	if len(rules) == 0 {
		return nil
	}
	return c.call(ctx, "AuthorizeSecurityGroupIngress", groupID, func(ctx context.Context) error {
		_, err := c.api.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
			GroupId:       aws.String(groupID),
			IpPermissions: toIPPermissions(rules),
		})
		return err
	})
}

// AuthorizeEgress grants outbound rules. An empty list is a no-op.
func (c *RealClient) AuthorizeEgress(ctx context.Context, groupID string, rules []record.Rule) error {
	if len(rules) == 0 {
		return nil
	}
	return c.call(ctx, "AuthorizeSecurityGroupEgress", groupID, func(ctx context.Context) error {
		_, err := c.api.AuthorizeSecurityGroupEgress(ctx, &ec2.AuthorizeSecurityGroupEgressInput{
			GroupId:       aws.String(groupID),
			IpPermissions: toIPPermissions(rules),
		})
		return err
	})
}

// RevokeIngress removes inbound rules. An empty list is a no-op.
func (c *RealClient) RevokeIngress(ctx context.Context, groupID string, rules []record.Rule) error {
	if len(rules) == 0 {
		return nil
	}
	return c.call(ctx, "RevokeSecurityGroupIngress", groupID, func(ctx context.Context) error {
		_, err := c.api.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
			GroupId:       aws.String(groupID),
			IpPermissions: toIPPermissions(rules),
		})
		return err
	})
}

// RevokeEgress removes outbound rules. An empty list is a no-op.
func (c *RealClient) RevokeEgress(ctx context.Context, groupID string, rules []record.Rule) error {
	if len(rules) == 0 {
		return nil
	}
	return c.call(ctx, "RevokeSecurityGroupEgress", groupID, func(ctx context.Context) error {
		_, err := c.api.RevokeSecurityGroupEgress(ctx, &ec2.RevokeSecurityGroupEgressInput{
			GroupId:       aws.String(groupID),
			IpPermissions: toIPPermissions(rules),
		})
		return err
	})
}

// DeleteSecurityGroup deletes a security group.
func (c *RealClient) DeleteSecurityGroup(ctx context.Context, groupID string) error {
	return c.call(ctx, "DeleteSecurityGroup", groupID, func(ctx context.Context) error {
		_, err := c.api.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupId: aws.String(groupID)})
		return err
	})
}
