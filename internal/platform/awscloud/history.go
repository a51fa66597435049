package awscloud

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/spotcluster/internal/pricing"
)

// SpotPriceHistory pages through the spot price history of the region.
func (c *RealClient) SpotPriceHistory(ctx context.Context, q pricing.HistoryQuery) ([]pricing.Observation, error) {
	in := &ec2.DescribeSpotPriceHistoryInput{
		StartTime:     aws.Time(q.Since),
		InstanceTypes: make([]types.InstanceType, 0, len(q.InstanceTypes)),
	}
	for _, t := range q.InstanceTypes {
		in.InstanceTypes = append(in.InstanceTypes, types.InstanceType(t))
	}
	if q.ProductDescription != "" {
		in.ProductDescriptions = []string{q.ProductDescription}
	}

	var out []pricing.Observation
	paginator := ec2.NewDescribeSpotPriceHistoryPaginator(c.api, in)
	for paginator.HasMorePages() {
		var page *ec2.DescribeSpotPriceHistoryOutput
		err := c.call(ctx, "DescribeSpotPriceHistory", c.region, func(ctx context.Context) error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, sp := range page.SpotPriceHistory {
			price, err := strconv.ParseFloat(aws.ToString(sp.SpotPrice), 64)
			if err != nil {
				continue
			}
			out = append(out, pricing.Observation{
				InstanceType:       string(sp.InstanceType),
				Zone:               aws.ToString(sp.AvailabilityZone),
				ProductDescription: string(sp.ProductDescription),
				Timestamp:          aws.ToTime(sp.Timestamp),
				Price:              price,
			})
		}
	}
	return out, nil
}
