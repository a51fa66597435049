// Package main is the entry point for the spotcluster CLI.
//
// spotcluster builds ephemeral compute clusters on EC2 spot capacity: a
// private network, a long-lived controller with persistent storage, and a
// spot fleet of workers bid for from recent market prices. Everything it
// creates is written to a cluster record so the cluster can be resumed or
// dismantled later.
//
// Commands: init, create, destroy, bid, prices, version.
//
// For detailed usage information, run:
//
//	spotcluster --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/spotcluster/cmd/spotcluster/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
