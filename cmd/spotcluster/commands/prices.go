package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/spotcluster/cmd/spotcluster/handlers"
)

// Prices returns the prices command.
func Prices() *cobra.Command {
	var (
		flags   clusterFlags
		all     bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Show on-demand prices for the region",
		Long: `Prices lists Linux on-demand prices from the public price list.

With pricing.cache_file set, the downloaded catalog is kept as a snapshot
and reused by later runs; --refresh discards it first.

Example:
  spotcluster prices -c spotcluster.yaml
  spotcluster prices --region eu-west-1 --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Prices(cmd.Context(), handlers.PricesOptions{
				ConfigPath: flags.configPath,
				Overrides:  flags.overrides(cmd),
				All:        all,
				Refresh:    refresh,
			})
		},
	}

	flags.bindIdentity(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "List every instance type, not only the fleet's")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Discard the price snapshot and download again")

	return cmd
}
