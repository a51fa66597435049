package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/spotcluster/cmd/spotcluster/handlers"
)

// Bid returns the bid command.
func Bid() *cobra.Command {
	var (
		flags  clusterFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "bid",
		Short: "Show the spot bid the next create would submit",
		Long: `Bid computes per-type spot bids for the configured fleet without
creating anything.

Policies:
  automatic        on-demand price per capacity unit
  cost-minimizing  a percentile of recent spot prices, inflated and
                   capped at the on-demand price

Example:
  spotcluster bid -c spotcluster.yaml
  spotcluster bid -c spotcluster.yaml --policy cost-minimizing --window 24h -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Bid(cmd.Context(), handlers.BidOptions{
				ConfigPath: flags.configPath,
				Overrides:  flags.overrides(cmd),
				Output:     output,
			})
		},
	}

	flags.bindIdentity(cmd)
	flags.bindFleet(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", handlers.OutputTable, "Output format: table, box, compact or json")

	return cmd
}
