package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/spotcluster/cmd/spotcluster/handlers"
)

// Init returns the command for writing a starter configuration.
func Init() *cobra.Command {
	var (
		output string
		name   string
		region string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented starter configuration",
		Long: `Init writes a configuration file with every setting at its default
and a comment per section.

Example:
  spotcluster init --name demo --region us-east-1
  spotcluster init -o clusters/demo.yaml --force`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Init(output, name, region, force)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "spotcluster.yaml", "Output file path")
	cmd.Flags().StringVarP(&name, "name", "n", "spotcluster", "Cluster name")
	cmd.Flags().StringVarP(&region, "region", "r", "us-east-1", "AWS region")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
