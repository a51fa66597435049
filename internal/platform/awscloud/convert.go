package awscloud

import (
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/spotcluster/internal/record"
)

func toEC2Tags(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

func tagSpec(resourceType types.ResourceType, tags map[string]string) []types.TagSpecification {
	if len(tags) == 0 {
		return nil
	}
	return []types.TagSpecification{{ResourceType: resourceType, Tags: toEC2Tags(tags)}}
}

func toIPPermissions(rules []record.Rule) []types.IpPermission {
	perms := make([]types.IpPermission, 0, len(rules))
	for _, r := range rules {
		p := types.IpPermission{IpProtocol: aws.String(r.Protocol)}
		if r.HasPorts() {
			p.FromPort = aws.Int32(r.FromPort)
			p.ToPort = aws.Int32(r.ToPort)
		}
		if r.PeerGroupID != "" {
			pair := types.UserIdGroupPair{GroupId: aws.String(r.PeerGroupID)}
			if r.PeerNetworkID != "" {
				pair.VpcId = aws.String(r.PeerNetworkID)
			}
			p.UserIdGroupPairs = []types.UserIdGroupPair{pair}
		}
		if r.CIDR != "" {
			p.IpRanges = []types.IpRange{{CidrIp: aws.String(r.CIDR)}}
		}
		perms = append(perms, p)
	}
	return perms
}

func filter(name string, values ...string) types.Filter {
	return types.Filter{Name: aws.String(name), Values: values}
}
