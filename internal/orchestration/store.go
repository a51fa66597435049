package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/spotcluster/internal/platform/s3"
	"github.com/imamik/spotcluster/internal/record"
)

// ObjectClientFactory builds the object storage client for s3:// records.
// Tests replace it.
var ObjectClientFactory = func(ctx context.Context, region string) (record.ObjectClient, error) {
	return s3.NewClient(ctx, region, "")
}

// OpenStore returns the record store for location: an object when it is an
// s3:// URI, a local file otherwise.
func OpenStore(ctx context.Context, location, region string) (record.Store, error) {
	if !strings.HasPrefix(location, "s3://") {
		return record.NewFileStore(location), nil
	}

	bucket, key, ok := record.ParseS3URI(location)
	if !ok {
		return nil, fmt.Errorf("invalid record location %q: expected s3://bucket/key", location)
	}
	client, err := ObjectClientFactory(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return record.NewS3Store(client, bucket, key, isMissingObject), nil
}

func isMissingObject(err error) bool {
	return errors.Is(err, s3.ErrObjectNotFound)
}
