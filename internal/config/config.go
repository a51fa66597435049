package config

import (
	"path/filepath"
	"time"

	"github.com/imamik/spotcluster/internal/util/naming"
)

// Config holds everything needed to create or dismantle one cluster.
type Config struct {
	ClusterName   string `mapstructure:"cluster_name" yaml:"cluster_name"`
	Region        string `mapstructure:"region" yaml:"region"`
	NetworkPrefix string `mapstructure:"network_prefix" yaml:"network_prefix"`

	// Record is a local path or s3://bucket/key. Empty means
	// <cluster>_ClusterResources.json in the working directory.
	Record string `mapstructure:"record" yaml:"record,omitempty"`
	// KeyDir receives generated private keys.
	KeyDir string `mapstructure:"key_dir" yaml:"key_dir"`
	// EC2Endpoint overrides the EC2 API endpoint (for local emulators).
	EC2Endpoint string `mapstructure:"ec2_endpoint" yaml:"ec2_endpoint,omitempty"`

	Controller ControllerConfig  `mapstructure:"controller" yaml:"controller"`
	Storage    StorageConfig     `mapstructure:"storage" yaml:"storage"`
	Fleet      FleetConfig       `mapstructure:"fleet" yaml:"fleet"`
	Bid        BidConfig         `mapstructure:"bid" yaml:"bid"`
	Pricing    PricingConfig     `mapstructure:"pricing" yaml:"pricing"`
	Templates  TemplatesConfig   `mapstructure:"templates" yaml:"templates,omitempty"`
	Tags       map[string]string `mapstructure:"tags" yaml:"tags,omitempty"`
}

// ControllerConfig describes the on-demand controller node.
type ControllerConfig struct {
	InstanceType string `mapstructure:"instance_type" yaml:"instance_type"`
	// Zone pins the controller (and its volume). Empty picks one at random.
	Zone             string `mapstructure:"zone" yaml:"zone,omitempty"`
	ImageNamePattern string `mapstructure:"image_name_pattern" yaml:"image_name_pattern"`
	ImageOwner       string `mapstructure:"image_owner" yaml:"image_owner"`
	RootVolumeType   string `mapstructure:"root_volume_type" yaml:"root_volume_type"`
	// WaitForSSH holds create until the controller accepts SSH connections.
	WaitForSSH bool `mapstructure:"wait_for_ssh" yaml:"wait_for_ssh"`
}

// StorageConfig describes the persistent data volume.
type StorageConfig struct {
	SizeGiB        int32  `mapstructure:"size_gib" yaml:"size_gib"`
	VolumeType     string `mapstructure:"volume_type" yaml:"volume_type"`
	DevicePath     string `mapstructure:"device_path" yaml:"device_path"`
	MountPath      string `mapstructure:"mount_path" yaml:"mount_path"`
	KeepOnTeardown bool   `mapstructure:"keep_on_teardown" yaml:"keep_on_teardown"`
}

// InstanceWeight is the capacity one instance of a type contributes.
type InstanceWeight struct {
	Type   string  `mapstructure:"type" yaml:"type"`
	Weight float64 `mapstructure:"weight" yaml:"weight"`
}

// FleetConfig describes the spot worker pool.
type FleetConfig struct {
	TargetCapacity     int32            `mapstructure:"target_capacity" yaml:"target_capacity"`
	IAMFleetRole       string           `mapstructure:"iam_fleet_role" yaml:"iam_fleet_role"`
	InstanceTypes      []InstanceWeight `mapstructure:"instance_types" yaml:"instance_types"`
	Validity           time.Duration    `mapstructure:"validity" yaml:"validity"`
	AllocationStrategy string           `mapstructure:"allocation_strategy" yaml:"allocation_strategy"`
	RootDevice         string           `mapstructure:"root_device" yaml:"root_device"`
	RootVolumeSizeGiB  int32            `mapstructure:"root_volume_size_gib" yaml:"root_volume_size_gib"`
	RootVolumeType     string           `mapstructure:"root_volume_type" yaml:"root_volume_type"`
}

// Weights returns the instance weights keyed by type.
func (f FleetConfig) Weights() map[string]float64 {
	out := make(map[string]float64, len(f.InstanceTypes))
	for _, it := range f.InstanceTypes {
		out[it.Type] = it.Weight
	}
	return out
}

// BidConfig selects the bid policy and its knobs.
type BidConfig struct {
	Policy             string        `mapstructure:"policy" yaml:"policy"`
	Inflation          float64       `mapstructure:"inflation" yaml:"inflation"`
	Percentile         float64       `mapstructure:"percentile" yaml:"percentile"`
	Window             time.Duration `mapstructure:"window" yaml:"window"`
	ProductDescription string        `mapstructure:"product_description" yaml:"product_description"`
}

// PricingConfig locates the public on-demand price list.
type PricingConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// CacheFile keeps a catalog snapshot between runs. Empty disables it.
	CacheFile string `mapstructure:"cache_file" yaml:"cache_file,omitempty"`
}

// TemplatesConfig optionally replaces the embedded startup scripts.
type TemplatesConfig struct {
	Controller string `mapstructure:"controller" yaml:"controller,omitempty"`
	Worker     string `mapstructure:"worker" yaml:"worker,omitempty"`
}

// RecordLocation returns where the cluster record is kept.
func (c *Config) RecordLocation() string {
	if c.Record != "" {
		return c.Record
	}
	return naming.RecordFile(c.ClusterName)
}

// PrivateKeyDir returns the directory for generated keys.
func (c *Config) PrivateKeyDir() string {
	if c.KeyDir == "" {
		return "."
	}
	return filepath.Clean(c.KeyDir)
}
