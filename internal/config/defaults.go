package config

import "time"

// Default values.
const (
	DefaultNetworkPrefix      = "10.0.0.0/16"
	DefaultControllerType     = "t2.micro"
	DefaultImageNamePattern   = "amzn-ami-hvm*"
	DefaultImageOwner         = "amazon"
	DefaultVolumeType         = "gp2"
	DefaultStorageSizeGiB     = 16
	DefaultDevicePath         = "/dev/xvdd"
	DefaultMountPath          = "/ebsdata"
	DefaultFleetValidity      = 8766 * time.Hour
	DefaultAllocationStrategy = "lowestPrice"
	DefaultWorkerRootDevice   = "/dev/xvda"
	DefaultWorkerRootGiB      = 8
	DefaultBidPolicy          = "automatic"
	DefaultInflation          = 1.5
	DefaultPercentile         = 75
	DefaultHistoryWindow      = 48 * time.Hour
	DefaultProductDescription = "Linux/UNIX"
	DefaultPricingEndpoint    = "https://pricing.us-east-1.amazonaws.com"
)

// DefaultInstanceTypes is the compute-optimized family weighted by vCPU.
var DefaultInstanceTypes = []InstanceWeight{
	{Type: "c3.large", Weight: 2},
	{Type: "c3.xlarge", Weight: 4},
	{Type: "c3.2xlarge", Weight: 8},
	{Type: "c3.4xlarge", Weight: 16},
	{Type: "c3.8xlarge", Weight: 32},
	{Type: "c4.large", Weight: 2},
	{Type: "c4.xlarge", Weight: 4},
	{Type: "c4.2xlarge", Weight: 8},
	{Type: "c4.4xlarge", Weight: 16},
	{Type: "c4.8xlarge", Weight: 36},
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		NetworkPrefix: DefaultNetworkPrefix,
		KeyDir:        ".",
		Controller: ControllerConfig{
			InstanceType:     DefaultControllerType,
			ImageNamePattern: DefaultImageNamePattern,
			ImageOwner:       DefaultImageOwner,
			RootVolumeType:   DefaultVolumeType,
		},
		Storage: StorageConfig{
			SizeGiB:        DefaultStorageSizeGiB,
			VolumeType:     DefaultVolumeType,
			DevicePath:     DefaultDevicePath,
			MountPath:      DefaultMountPath,
			KeepOnTeardown: true,
		},
		Fleet: FleetConfig{
			InstanceTypes:      append([]InstanceWeight(nil), DefaultInstanceTypes...),
			Validity:           DefaultFleetValidity,
			AllocationStrategy: DefaultAllocationStrategy,
			RootDevice:         DefaultWorkerRootDevice,
			RootVolumeSizeGiB:  DefaultWorkerRootGiB,
			RootVolumeType:     DefaultVolumeType,
		},
		Bid: BidConfig{
			Policy:             DefaultBidPolicy,
			Inflation:          DefaultInflation,
			Percentile:         DefaultPercentile,
			Window:             DefaultHistoryWindow,
			ProductDescription: DefaultProductDescription,
		},
		Pricing: PricingConfig{
			Endpoint: DefaultPricingEndpoint,
		},
	}
}
