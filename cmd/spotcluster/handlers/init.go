package handlers

import (
	"fmt"
	"os"

	"github.com/imamik/spotcluster/internal/config"
)

// Init writes a commented starter configuration to path. An existing file
// is only replaced when force is set.
func Init(path, clusterName, region string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	data, err := config.DefaultYAML(clusterName, region)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(stdout, "Wrote %s\n", path)
	fmt.Fprintln(stdout, "Set fleet.iam_fleet_role and review fleet.instance_types before running create.")
	return nil
}
