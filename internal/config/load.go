package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SPOTCLUSTER_REGION or
// SPOTCLUSTER_FLEET_TARGET_CAPACITY.
const EnvPrefix = "SPOTCLUSTER"

// Load builds the configuration from defaults, the YAML file at path (when
// non-empty), environment variables and overrides, in increasing priority.
// Override keys use the dotted mapstructure names, e.g. "fleet.target_capacity".
// The result is validated.
func Load(path string, overrides map[string]any) (*Config, error) {
	cfg, err := Read(path, overrides)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Read is Load without validation, for commands that need only part of the
// configuration.
func Read(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so environment variables can reach it.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("cluster_name", "")
	v.SetDefault("region", "")
	v.SetDefault("network_prefix", d.NetworkPrefix)
	v.SetDefault("record", "")
	v.SetDefault("key_dir", d.KeyDir)
	v.SetDefault("ec2_endpoint", "")

	v.SetDefault("controller.instance_type", d.Controller.InstanceType)
	v.SetDefault("controller.zone", "")
	v.SetDefault("controller.image_name_pattern", d.Controller.ImageNamePattern)
	v.SetDefault("controller.image_owner", d.Controller.ImageOwner)
	v.SetDefault("controller.root_volume_type", d.Controller.RootVolumeType)
	v.SetDefault("controller.wait_for_ssh", d.Controller.WaitForSSH)

	v.SetDefault("storage.size_gib", d.Storage.SizeGiB)
	v.SetDefault("storage.volume_type", d.Storage.VolumeType)
	v.SetDefault("storage.device_path", d.Storage.DevicePath)
	v.SetDefault("storage.mount_path", d.Storage.MountPath)
	v.SetDefault("storage.keep_on_teardown", d.Storage.KeepOnTeardown)

	weights := make([]map[string]any, 0, len(d.Fleet.InstanceTypes))
	for _, it := range d.Fleet.InstanceTypes {
		weights = append(weights, map[string]any{"type": it.Type, "weight": it.Weight})
	}
	v.SetDefault("fleet.target_capacity", 0)
	v.SetDefault("fleet.iam_fleet_role", "")
	v.SetDefault("fleet.instance_types", weights)
	v.SetDefault("fleet.validity", d.Fleet.Validity)
	v.SetDefault("fleet.allocation_strategy", d.Fleet.AllocationStrategy)
	v.SetDefault("fleet.root_device", d.Fleet.RootDevice)
	v.SetDefault("fleet.root_volume_size_gib", d.Fleet.RootVolumeSizeGiB)
	v.SetDefault("fleet.root_volume_type", d.Fleet.RootVolumeType)

	v.SetDefault("bid.policy", d.Bid.Policy)
	v.SetDefault("bid.inflation", d.Bid.Inflation)
	v.SetDefault("bid.percentile", d.Bid.Percentile)
	v.SetDefault("bid.window", d.Bid.Window)
	v.SetDefault("bid.product_description", d.Bid.ProductDescription)

	v.SetDefault("pricing.endpoint", d.Pricing.Endpoint)
	v.SetDefault("pricing.cache_file", "")

	v.SetDefault("templates.controller", "")
	v.SetDefault("templates.worker", "")
}

// IsConfigurationError reports whether err carries a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
