package awscloud

import (
	"context"
	"time"

	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/record"
)

// Instance states reported by DescribeInstance.
const (
	StatePending      = "pending"
	StateRunning      = "running"
	StateShuttingDown = "shutting-down"
	StateTerminated   = "terminated"
	StateStopping     = "stopping"
	StateStopped      = "stopped"
)

// Instance is the observed state of one instance.
type Instance struct {
	ID        string
	State     string
	Zone      string
	PrivateIP string
	PublicIP  string
}

// Image is a machine image.
type Image struct {
	ID           string
	Name         string
	CreationDate string
}

// ImageFilter selects machine images.
type ImageFilter struct {
	NamePattern    string
	Owner          string
	RootVolumeType string
}

// VolumeOpts describes a block volume to create.
type VolumeOpts struct {
	Zone       string
	SizeGiB    int32
	VolumeType string
	Tags       map[string]string
}

// RunInstanceOpts describes a single on-demand instance.
type RunInstanceOpts struct {
	ImageID         string
	InstanceType    string
	SubnetID        string
	SecurityGroupID string
	KeyName         string
	// UserData is the raw startup script; the client encodes it.
	UserData string
	Tags     map[string]string
}

// LaunchSpec is one instance type eligible to fill fleet capacity.
type LaunchSpec struct {
	InstanceType     string
	ImageID          string
	SubnetIDs        []string
	SecurityGroupID  string
	KeyName          string
	WeightedCapacity float64
	SpotPrice        string
	// UserData is already base64 encoded.
	UserData          string
	RootDevice        string
	RootVolumeSizeGiB int32
	RootVolumeType    string
}

// FleetRequest is a capacity-maintaining spot fleet.
type FleetRequest struct {
	IAMFleetRole       string
	AllocationStrategy string
	TargetCapacity     int32
	SpotPrice          string
	ValidFrom          time.Time
	ValidUntil         time.Time
	TerminateAtExpiry  bool
	LaunchSpecs        []LaunchSpec
	Tags               map[string]string
}

// NetworkManager manages the VPC and its routing.
type NetworkManager interface {
	// CreateVPC creates a VPC with DNS support and hostnames enabled.
	CreateVPC(ctx context.Context, cidr string, tags map[string]string) (string, error)
	DeleteVPC(ctx context.Context, vpcID string) error
	CreateInternetGateway(ctx context.Context, tags map[string]string) (string, error)
	AttachInternetGateway(ctx context.Context, igwID, vpcID string) error
	DetachInternetGateway(ctx context.Context, igwID, vpcID string) error
	DeleteInternetGateway(ctx context.Context, igwID string) error
	MainRouteTable(ctx context.Context, vpcID string) (string, error)
	CreateDefaultRoute(ctx context.Context, routeTableID, igwID string) error
	DeleteDefaultRoute(ctx context.Context, routeTableID string) error
	ListAvailabilityZones(ctx context.Context) ([]string, error)
	// CreateSubnet creates a subnet that assigns public addresses on launch.
	CreateSubnet(ctx context.Context, vpcID, zone, cidr string, tags map[string]string) (string, error)
	ListSubnets(ctx context.Context, vpcID string) ([]string, error)
	DeleteSubnet(ctx context.Context, subnetID string) error
}

// PerimeterManager manages security groups and their rules.
type PerimeterManager interface {
	CreateSecurityGroup(ctx context.Context, vpcID, name, description string, tags map[string]string) (string, error)
	AuthorizeIngress(ctx context.Context, groupID string, rules []record.Rule) error
	AuthorizeEgress(ctx context.Context, groupID string, rules []record.Rule) error
	RevokeIngress(ctx context.Context, groupID string, rules []record.Rule) error
	RevokeEgress(ctx context.Context, groupID string, rules []record.Rule) error
	DeleteSecurityGroup(ctx context.Context, groupID string) error
}

// StorageManager manages block volumes.
type StorageManager interface {
	CreateVolume(ctx context.Context, opts VolumeOpts) (string, error)
	AttachVolume(ctx context.Context, volumeID, instanceID, device string) error
	DeleteVolume(ctx context.Context, volumeID string) error
}

// CredentialManager manages access key pairs.
type CredentialManager interface {
	KeyPairExists(ctx context.Context, name string) (bool, error)
	ImportKeyPair(ctx context.Context, name string, publicKey []byte, tags map[string]string) error
}

// ComputeManager manages images and on-demand instances.
type ComputeManager interface {
	// FindNewestImage returns the most recently created matching image.
	FindNewestImage(ctx context.Context, filter ImageFilter) (*Image, error)
	RunInstance(ctx context.Context, opts RunInstanceOpts) (string, error)
	DescribeInstance(ctx context.Context, instanceID string) (*Instance, error)
	TerminateInstance(ctx context.Context, instanceID string) error
}

// FleetManager manages spot fleet requests.
type FleetManager interface {
	RequestSpotFleet(ctx context.Context, req FleetRequest) (string, error)
	CancelSpotFleet(ctx context.Context, requestID string, terminateInstances bool) error
}

// TagManager manages resource tags.
type TagManager interface {
	CreateTags(ctx context.Context, resourceIDs []string, tags map[string]string) error
	DeleteTags(ctx context.Context, resourceIDs []string, keys []string) error
}

// Provider is every capability the cluster workflow uses.
type Provider interface {
	NetworkManager
	PerimeterManager
	StorageManager
	CredentialManager
	ComputeManager
	FleetManager
	TagManager
	pricing.HistorySource
}
