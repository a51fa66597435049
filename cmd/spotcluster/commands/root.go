// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/imamik/spotcluster/cmd/spotcluster/handlers"
)

// Root returns the root command for the spotcluster CLI.
func Root() *cobra.Command {
	var verbosity int

	cmd := &cobra.Command{
		Use:           "spotcluster",
		Short:         "Build ephemeral compute clusters on EC2 spot capacity",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			log := handlers.NewLogger(cmd.ErrOrStderr(), verbosity)
			cmd.SetContext(logr.NewContext(ctx, log))
		},
	}

	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeat for more)")

	cmd.AddCommand(Init())
	cmd.AddCommand(Create())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Bid())
	cmd.AddCommand(Prices())
	cmd.AddCommand(Version())

	return cmd
}
