package awscloud

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// CreateTags tags resources.
func (c *RealClient) CreateTags(ctx context.Context, resourceIDs []string, tags map[string]string) error {
	if len(resourceIDs) == 0 || len(tags) == 0 {
		return nil
	}
	return c.call(ctx, "CreateTags", strings.Join(resourceIDs, ","), func(ctx context.Context) error {
		_, err := c.api.CreateTags(ctx, &ec2.CreateTagsInput{
			Resources: resourceIDs,
			Tags:      toEC2Tags(tags),
		})
		return err
	})
}

// DeleteTags removes tag keys from resources.
func (c *RealClient) DeleteTags(ctx context.Context, resourceIDs []string, keys []string) error {
	if len(resourceIDs) == 0 || len(keys) == 0 {
		return nil
	}
	tags := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, types.Tag{Key: aws.String(k)})
	}
	return c.call(ctx, "DeleteTags", strings.Join(resourceIDs, ","), func(ctx context.Context) error {
		_, err := c.api.DeleteTags(ctx, &ec2.DeleteTagsInput{
			Resources: resourceIDs,
			Tags:      tags,
		})
		return err
	})
}
