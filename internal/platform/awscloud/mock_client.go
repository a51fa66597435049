package awscloud

import (
	"context"

	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/record"
)

// MockClient is a mock implementation of Provider. Unset funcs succeed
// with placeholder IDs.
type MockClient struct {
	// Network
	CreateVPCFunc             func(ctx context.Context, cidr string, tags map[string]string) (string, error)
	DeleteVPCFunc             func(ctx context.Context, vpcID string) error
	CreateInternetGatewayFunc func(ctx context.Context, tags map[string]string) (string, error)
	AttachInternetGatewayFunc func(ctx context.Context, igwID, vpcID string) error
	DetachInternetGatewayFunc func(ctx context.Context, igwID, vpcID string) error
	DeleteInternetGatewayFunc func(ctx context.Context, igwID string) error
	MainRouteTableFunc        func(ctx context.Context, vpcID string) (string, error)
	CreateDefaultRouteFunc    func(ctx context.Context, routeTableID, igwID string) error
	DeleteDefaultRouteFunc    func(ctx context.Context, routeTableID string) error
	ListAvailabilityZonesFunc func(ctx context.Context) ([]string, error)
	CreateSubnetFunc          func(ctx context.Context, vpcID, zone, cidr string, tags map[string]string) (string, error)
	ListSubnetsFunc           func(ctx context.Context, vpcID string) ([]string, error)
	DeleteSubnetFunc          func(ctx context.Context, subnetID string) error

	// Perimeters
	CreateSecurityGroupFunc func(ctx context.Context, vpcID, name, description string, tags map[string]string) (string, error)
	AuthorizeIngressFunc    func(ctx context.Context, groupID string, rules []record.Rule) error
	AuthorizeEgressFunc     func(ctx context.Context, groupID string, rules []record.Rule) error
	RevokeIngressFunc       func(ctx context.Context, groupID string, rules []record.Rule) error
	RevokeEgressFunc        func(ctx context.Context, groupID string, rules []record.Rule) error
	DeleteSecurityGroupFunc func(ctx context.Context, groupID string) error

	// Storage
	CreateVolumeFunc func(ctx context.Context, opts VolumeOpts) (string, error)
	AttachVolumeFunc func(ctx context.Context, volumeID, instanceID, device string) error
	DeleteVolumeFunc func(ctx context.Context, volumeID string) error

	// Credentials
	KeyPairExistsFunc func(ctx context.Context, name string) (bool, error)
	ImportKeyPairFunc func(ctx context.Context, name string, publicKey []byte, tags map[string]string) error

	// Compute
	FindNewestImageFunc   func(ctx context.Context, filter ImageFilter) (*Image, error)
	RunInstanceFunc       func(ctx context.Context, opts RunInstanceOpts) (string, error)
	DescribeInstanceFunc  func(ctx context.Context, instanceID string) (*Instance, error)
	TerminateInstanceFunc func(ctx context.Context, instanceID string) error

	// Fleet
	RequestSpotFleetFunc func(ctx context.Context, req FleetRequest) (string, error)
	CancelSpotFleetFunc  func(ctx context.Context, requestID string, terminateInstances bool) error

	// Tags
	CreateTagsFunc func(ctx context.Context, resourceIDs []string, tags map[string]string) error
	DeleteTagsFunc func(ctx context.Context, resourceIDs []string, keys []string) error

	// Pricing
	SpotPriceHistoryFunc func(ctx context.Context, q pricing.HistoryQuery) ([]pricing.Observation, error)
}

// Ensure interface compliance
var _ Provider = (*MockClient)(nil)

// CreateVPC mocks VPC creation.
func (m *MockClient) CreateVPC(ctx context.Context, cidr string, tags map[string]string) (string, error) {
	if m.CreateVPCFunc != nil {
		return m.CreateVPCFunc(ctx, cidr, tags)
	}
	return "vpc-mock", nil
}

// DeleteVPC mocks VPC deletion.
func (m *MockClient) DeleteVPC(ctx context.Context, vpcID string) error {
	if m.DeleteVPCFunc != nil {
		return m.DeleteVPCFunc(ctx, vpcID)
	}
	return nil
}

// CreateInternetGateway mocks gateway creation.
func (m *MockClient) CreateInternetGateway(ctx context.Context, tags map[string]string) (string, error) {
	if m.CreateInternetGatewayFunc != nil {
		return m.CreateInternetGatewayFunc(ctx, tags)
	}
	return "igw-mock", nil
}

// AttachInternetGateway mocks gateway attachment.
func (m *MockClient) AttachInternetGateway(ctx context.Context, igwID, vpcID string) error {
	if m.AttachInternetGatewayFunc != nil {
		return m.AttachInternetGatewayFunc(ctx, igwID, vpcID)
	}
	return nil
}

// DetachInternetGateway mocks gateway detachment.
func (m *MockClient) DetachInternetGateway(ctx context.Context, igwID, vpcID string) error {
	if m.DetachInternetGatewayFunc != nil {
		return m.DetachInternetGatewayFunc(ctx, igwID, vpcID)
	}
	return nil
}

// DeleteInternetGateway mocks gateway deletion.
func (m *MockClient) DeleteInternetGateway(ctx context.Context, igwID string) error {
	if m.DeleteInternetGatewayFunc != nil {
		return m.DeleteInternetGatewayFunc(ctx, igwID)
	}
	return nil
}

// MainRouteTable mocks the main route table lookup.
func (m *MockClient) MainRouteTable(ctx context.Context, vpcID string) (string, error) {
	if m.MainRouteTableFunc != nil {
		return m.MainRouteTableFunc(ctx, vpcID)
	}
	return "rtb-mock", nil
}

// CreateDefaultRoute mocks default route creation.
func (m *MockClient) CreateDefaultRoute(ctx context.Context, routeTableID, igwID string) error {
	if m.CreateDefaultRouteFunc != nil {
		return m.CreateDefaultRouteFunc(ctx, routeTableID, igwID)
	}
	return nil
}

// DeleteDefaultRoute mocks default route deletion.
func (m *MockClient) DeleteDefaultRoute(ctx context.Context, routeTableID string) error {
	if m.DeleteDefaultRouteFunc != nil {
		return m.DeleteDefaultRouteFunc(ctx, routeTableID)
	}
	return nil
}

// ListAvailabilityZones mocks zone listing.
func (m *MockClient) ListAvailabilityZones(ctx context.Context) ([]string, error) {
	if m.ListAvailabilityZonesFunc != nil {
		return m.ListAvailabilityZonesFunc(ctx)
	}
	return []string{"mock-1a", "mock-1b"}, nil
}

// CreateSubnet mocks subnet creation.
func (m *MockClient) CreateSubnet(ctx context.Context, vpcID, zone, cidr string, tags map[string]string) (string, error) {
	if m.CreateSubnetFunc != nil {
		return m.CreateSubnetFunc(ctx, vpcID, zone, cidr, tags)
	}
	return "subnet-" + zone, nil
}

// ListSubnets mocks subnet listing.
func (m *MockClient) ListSubnets(ctx context.Context, vpcID string) ([]string, error) {
	if m.ListSubnetsFunc != nil {
		return m.ListSubnetsFunc(ctx, vpcID)
	}
	return nil, nil
}

// DeleteSubnet mocks subnet deletion.
func (m *MockClient) DeleteSubnet(ctx context.Context, subnetID string) error {
	if m.DeleteSubnetFunc != nil {
		return m.DeleteSubnetFunc(ctx, subnetID)
	}
	return nil
}

// CreateSecurityGroup mocks security group creation.
func (m *MockClient) CreateSecurityGroup(ctx context.Context, vpcID, name, description string, tags map[string]string) (string, error) {
	if m.CreateSecurityGroupFunc != nil {
		return m.CreateSecurityGroupFunc(ctx, vpcID, name, description, tags)
	}
	return "sg-" + name, nil
}

// AuthorizeIngress mocks ingress authorization.
func (m *MockClient) AuthorizeIngress(ctx context.Context, groupID string, rules []record.Rule) error {
	if m.AuthorizeIngressFunc != nil {
		return m.AuthorizeIngressFunc(ctx, groupID, rules)
	}
	return nil
}

// AuthorizeEgress mocks egress authorization.
func (m *MockClient) AuthorizeEgress(ctx context.Context, groupID string, rules []record.Rule) error {
	if m.AuthorizeEgressFunc != nil {
		return m.AuthorizeEgressFunc(ctx, groupID, rules)
	}
	return nil
}

// RevokeIngress mocks ingress revocation.
func (m *MockClient) RevokeIngress(ctx context.Context, groupID string, rules []record.Rule) error {
	if m.RevokeIngressFunc != nil {
		return m.RevokeIngressFunc(ctx, groupID, rules)
	}
	return nil
}

// RevokeEgress mocks egress revocation.
func (m *MockClient) RevokeEgress(ctx context.Context, groupID string, rules []record.Rule) error {
	if m.RevokeEgressFunc != nil {
		return m.RevokeEgressFunc(ctx, groupID, rules)
	}
	return nil
}

// DeleteSecurityGroup mocks security group deletion.
func (m *MockClient) DeleteSecurityGroup(ctx context.Context, groupID string) error {
	if m.DeleteSecurityGroupFunc != nil {
		return m.DeleteSecurityGroupFunc(ctx, groupID)
	}
	return nil
}

// CreateVolume mocks volume creation.
func (m *MockClient) CreateVolume(ctx context.Context, opts VolumeOpts) (string, error) {
	if m.CreateVolumeFunc != nil {
		return m.CreateVolumeFunc(ctx, opts)
	}
	return "vol-mock", nil
}

// AttachVolume mocks volume attachment.
func (m *MockClient) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	if m.AttachVolumeFunc != nil {
		return m.AttachVolumeFunc(ctx, volumeID, instanceID, device)
	}
	return nil
}

// DeleteVolume mocks volume deletion.
func (m *MockClient) DeleteVolume(ctx context.Context, volumeID string) error {
	if m.DeleteVolumeFunc != nil {
		return m.DeleteVolumeFunc(ctx, volumeID)
	}
	return nil
}

// KeyPairExists mocks the key pair lookup.
func (m *MockClient) KeyPairExists(ctx context.Context, name string) (bool, error) {
	if m.KeyPairExistsFunc != nil {
		return m.KeyPairExistsFunc(ctx, name)
	}
	return false, nil
}

// ImportKeyPair mocks key pair import.
func (m *MockClient) ImportKeyPair(ctx context.Context, name string, publicKey []byte, tags map[string]string) error {
	if m.ImportKeyPairFunc != nil {
		return m.ImportKeyPairFunc(ctx, name, publicKey, tags)
	}
	return nil
}

// FindNewestImage mocks the image lookup.
func (m *MockClient) FindNewestImage(ctx context.Context, filter ImageFilter) (*Image, error) {
	if m.FindNewestImageFunc != nil {
		return m.FindNewestImageFunc(ctx, filter)
	}
	return &Image{ID: "ami-mock", Name: "mock-image"}, nil
}

// RunInstance mocks instance launch.
func (m *MockClient) RunInstance(ctx context.Context, opts RunInstanceOpts) (string, error) {
	if m.RunInstanceFunc != nil {
		return m.RunInstanceFunc(ctx, opts)
	}
	return "i-mock", nil
}

// DescribeInstance mocks the instance lookup. By default the instance is
// running.
func (m *MockClient) DescribeInstance(ctx context.Context, instanceID string) (*Instance, error) {
	if m.DescribeInstanceFunc != nil {
		return m.DescribeInstanceFunc(ctx, instanceID)
	}
	return &Instance{ID: instanceID, State: StateRunning, PrivateIP: "10.0.0.10", PublicIP: "203.0.113.10"}, nil
}

// TerminateInstance mocks instance termination.
func (m *MockClient) TerminateInstance(ctx context.Context, instanceID string) error {
	if m.TerminateInstanceFunc != nil {
		return m.TerminateInstanceFunc(ctx, instanceID)
	}
	return nil
}

// RequestSpotFleet mocks the fleet request.
func (m *MockClient) RequestSpotFleet(ctx context.Context, req FleetRequest) (string, error) {
	if m.RequestSpotFleetFunc != nil {
		return m.RequestSpotFleetFunc(ctx, req)
	}
	return "sfr-mock", nil
}

// CancelSpotFleet mocks fleet cancellation.
func (m *MockClient) CancelSpotFleet(ctx context.Context, requestID string, terminateInstances bool) error {
	if m.CancelSpotFleetFunc != nil {
		return m.CancelSpotFleetFunc(ctx, requestID, terminateInstances)
	}
	return nil
}

// CreateTags mocks tagging.
func (m *MockClient) CreateTags(ctx context.Context, resourceIDs []string, tags map[string]string) error {
	if m.CreateTagsFunc != nil {
		return m.CreateTagsFunc(ctx, resourceIDs, tags)
	}
	return nil
}

// DeleteTags mocks tag removal.
func (m *MockClient) DeleteTags(ctx context.Context, resourceIDs []string, keys []string) error {
	if m.DeleteTagsFunc != nil {
		return m.DeleteTagsFunc(ctx, resourceIDs, keys)
	}
	return nil
}

// SpotPriceHistory mocks the price history query.
func (m *MockClient) SpotPriceHistory(ctx context.Context, q pricing.HistoryQuery) ([]pricing.Observation, error) {
	if m.SpotPriceHistoryFunc != nil {
		return m.SpotPriceHistoryFunc(ctx, q)
	}
	return nil, nil
}
