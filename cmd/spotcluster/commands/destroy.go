package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/spotcluster/cmd/spotcluster/handlers"
)

// Destroy returns the destroy command.
//
// The destroy command removes every resource held by the cluster record, in
// reverse creation order.
func Destroy() *cobra.Command {
	var (
		flags       clusterFlags
		yes         bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy a cluster and every resource in its record",
		Long: `Destroy dismantles everything the cluster record holds:
  - Spot fleet (its instances are terminated)
  - Controller instance
  - Data volume, unless it is kept
  - Security group rules and groups
  - Subnets, default route, internet gateway and VPC

Resources that are already gone are skipped. Failures are reported and the
walk continues; the record is removed only once nothing is left, so destroy
can simply be run again.

Example:
  spotcluster destroy -c spotcluster.yaml
  spotcluster destroy --name demo --region us-east-1 --yes

WARNING: This operation is irreversible.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), handlers.DestroyOptions{
				ConfigPath:  flags.configPath,
				Overrides:   flags.overrides(cmd),
				Yes:         yes,
				MetricsFile: metricsFile,
			})
		},
	}

	flags.bindIdentity(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write a Prometheus textfile snapshot on exit")

	return cmd
}
