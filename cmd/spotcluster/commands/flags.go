package commands

import (
	"time"

	"github.com/spf13/cobra"
)

// clusterFlags are the command-line inputs that override configuration keys.
type clusterFlags struct {
	configPath string

	name   string
	region string
	record string

	zone        string
	capacity    int32
	fleetRole   string
	policy      string
	inflation   float64
	percentile  float64
	window      time.Duration
	storageSize int32
	keepVolume  bool
}

// bindIdentity adds the flags that locate a cluster and its record.
func (f *clusterFlags) bindIdentity(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to cluster configuration file")
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Cluster name")
	cmd.Flags().StringVarP(&f.region, "region", "r", "", "AWS region")
	cmd.Flags().StringVar(&f.record, "record", "", "Cluster record location (path or s3://bucket/key)")
}

// bindFleet adds the flags that shape the fleet and its bid.
func (f *clusterFlags) bindFleet(cmd *cobra.Command) {
	cmd.Flags().Int32Var(&f.capacity, "capacity", 0, "Target fleet capacity in weight units")
	cmd.Flags().StringVar(&f.fleetRole, "fleet-role", "", "IAM role ARN the spot fleet acts as")
	cmd.Flags().StringVar(&f.policy, "policy", "", "Bid policy: automatic or cost-minimizing")
	cmd.Flags().Float64Var(&f.inflation, "inflation", 0, "Multiplier applied to the historical percentile (cost-minimizing)")
	cmd.Flags().Float64Var(&f.percentile, "percentile", 0, "Historical percentile to bid at, 0-100 (cost-minimizing)")
	cmd.Flags().DurationVar(&f.window, "window", 0, "Price history window (cost-minimizing)")
}

// bindController adds the flags that place the controller and its volume.
func (f *clusterFlags) bindController(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.zone, "zone", "", "Availability zone for the controller (default: random)")
	cmd.Flags().Int32Var(&f.storageSize, "storage-size", 0, "Data volume size in GiB")
	cmd.Flags().BoolVar(&f.keepVolume, "keep-volume", true, "Keep the data volume on destroy")
}

// overrides returns the configuration keys for every flag set on cmd.
func (f *clusterFlags) overrides(cmd *cobra.Command) map[string]any {
	values := map[string]struct {
		key   string
		value any
	}{
		"name":         {"cluster_name", f.name},
		"region":       {"region", f.region},
		"record":       {"record", f.record},
		"zone":         {"controller.zone", f.zone},
		"capacity":     {"fleet.target_capacity", f.capacity},
		"fleet-role":   {"fleet.iam_fleet_role", f.fleetRole},
		"policy":       {"bid.policy", f.policy},
		"inflation":    {"bid.inflation", f.inflation},
		"percentile":   {"bid.percentile", f.percentile},
		"window":       {"bid.window", f.window},
		"storage-size": {"storage.size_gib", f.storageSize},
		"keep-volume":  {"storage.keep_on_teardown", f.keepVolume},
	}

	out := map[string]any{}
	for flag, v := range values {
		if cmd.Flags().Changed(flag) {
			out[v.key] = v.value
		}
	}
	return out
}
