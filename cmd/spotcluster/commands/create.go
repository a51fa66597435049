package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/spotcluster/cmd/spotcluster/handlers"
)

// Create returns the create command.
func Create() *cobra.Command {
	var (
		flags       clusterFlags
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a cluster: network, controller, storage and spot fleet",
		Long: `Create provisions a cluster on EC2 spot capacity.

Resources are created in dependency order:
  - VPC, internet gateway and default route
  - One subnet per availability zone
  - Controller, worker and storage security groups
  - Data volume and key pair
  - On-demand controller instance
  - Spot fleet of workers, bid from recent market prices

Every resource is written to the cluster record as soon as it exists. If a
run stops part way, running create again resumes from the record, and
destroy removes whatever it holds.

Example:
  spotcluster create -c spotcluster.yaml
  spotcluster create -c spotcluster.yaml --capacity 32 --policy cost-minimizing`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Create(cmd.Context(), handlers.CreateOptions{
				ConfigPath:  flags.configPath,
				Overrides:   flags.overrides(cmd),
				MetricsFile: metricsFile,
			})
		},
	}

	flags.bindIdentity(cmd)
	flags.bindFleet(cmd)
	flags.bindController(cmd)
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write a Prometheus textfile snapshot on exit")

	return cmd
}
