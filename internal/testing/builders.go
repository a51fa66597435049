package testing

import (
	"maps"
	"slices"
	"time"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/record"
)

// DefaultFleetRole is the IAM role set by NewConfigBuilder.
const DefaultFleetRole = "arn:aws:iam::123456789012:role/spot-fleet"

// standardWeights weights compute-optimized types by vCPU.
var standardWeights = map[string]float64{
	"c4.large":   2,
	"c4.xlarge":  4,
	"c4.2xlarge": 8,
	"c4.4xlarge": 16,
	"c4.8xlarge": 36,
}

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a builder holding a configuration that passes
// Validate.
func NewConfigBuilder() *ConfigBuilder {
	cfg := config.Default()
	cfg.ClusterName = "test-cluster"
	cfg.Region = "us-east-1"
	cfg.Fleet.TargetCapacity = 8
	cfg.Fleet.IAMFleetRole = DefaultFleetRole
	cfg.Fleet.InstanceTypes = []config.InstanceWeight{
		{Type: "c4.large", Weight: 2},
		{Type: "c4.xlarge", Weight: 4},
	}
	return &ConfigBuilder{cfg: *cfg}
}

// WithClusterName sets the cluster name.
func (b *ConfigBuilder) WithClusterName(name string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.ClusterName = name
	return newBuilder
}

// WithRegion sets the region.
func (b *ConfigBuilder) WithRegion(region string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Region = region
	return newBuilder
}

// WithNetworkPrefix sets the VPC prefix.
func (b *ConfigBuilder) WithNetworkPrefix(prefix string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.NetworkPrefix = prefix
	return newBuilder
}

// WithControllerZone pins the controller zone.
func (b *ConfigBuilder) WithControllerZone(zone string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Controller.Zone = zone
	return newBuilder
}

// WithStorage sets the data volume size and retention.
func (b *ConfigBuilder) WithStorage(sizeGiB int32, keep bool) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Storage.SizeGiB = sizeGiB
	newBuilder.cfg.Storage.KeepOnTeardown = keep
	return newBuilder
}

// WithFleet sets the target capacity and the worker types. Known types get
// their vCPU weight, unknown types weight 1.
func (b *ConfigBuilder) WithFleet(capacity int32, types ...string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Fleet.TargetCapacity = capacity
	if len(types) > 0 {
		newBuilder.cfg.Fleet.InstanceTypes = nil
		for _, t := range types {
			w, ok := standardWeights[t]
			if !ok {
				w = 1
			}
			newBuilder.cfg.Fleet.InstanceTypes = append(newBuilder.cfg.Fleet.InstanceTypes, config.InstanceWeight{Type: t, Weight: w})
		}
	}
	return newBuilder
}

// WithBidPolicy sets the bid policy name.
func (b *ConfigBuilder) WithBidPolicy(policy string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Bid.Policy = policy
	return newBuilder
}

// WithBidWindow sets the history window.
func (b *ConfigBuilder) WithBidWindow(window time.Duration) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Bid.Window = window
	return newBuilder
}

// WithKeyDir sets where private keys are written.
func (b *ConfigBuilder) WithKeyDir(dir string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.KeyDir = dir
	return newBuilder
}

// WithTags adds extra resource tags.
func (b *ConfigBuilder) WithTags(tags map[string]string) *ConfigBuilder {
	newBuilder := b.clone()
	if newBuilder.cfg.Tags == nil {
		newBuilder.cfg.Tags = map[string]string{}
	}
	maps.Copy(newBuilder.cfg.Tags, tags)
	return newBuilder
}

// Build returns the constructed configuration.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.clone().cfg
	return &cfg
}

// clone creates a deep copy of the builder.
func (b *ConfigBuilder) clone() *ConfigBuilder {
	cfg := b.cfg
	cfg.Fleet.InstanceTypes = slices.Clone(b.cfg.Fleet.InstanceTypes)
	cfg.Tags = maps.Clone(b.cfg.Tags)
	return &ConfigBuilder{cfg: cfg}
}

// NewRecord returns an empty record matching cfg.
func NewRecord(cfg *config.Config) *record.ClusterRecord {
	return record.New(cfg.ClusterName, cfg.Region, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
}
