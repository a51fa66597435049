package testing

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/aws/smithy-go"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/record"
)

type fakeVPC struct {
	cidr       string
	routeTable string
}

type fakeGateway struct {
	attachedTo string
}

type fakeRouteTable struct {
	vpc          string
	defaultRoute string
}

type fakeSubnet struct {
	vpc, zone, cidr string
}

type fakeGroup struct {
	vpc, name       string
	ingress, egress []record.Rule
}

type fakeVolume struct {
	zone       string
	sizeGiB    int32
	attachedTo string
}

type fakeInstance struct {
	opts  awscloud.RunInstanceOpts
	zone  string
	state string
	polls int
	host  int
}

// FakeCloud is an in-memory awscloud.Provider. Missing resources produce
// NotFound errors and deletions that EC2 would refuse produce
// DependencyViolation, so teardown ordering mistakes surface in tests.
type FakeCloud struct {
	mu sync.Mutex

	// Zones returned by ListAvailabilityZones.
	Zones []string
	// Images searched by FindNewestImage.
	Images []awscloud.Image
	// History returned by SpotPriceHistory, filtered by the query.
	History []pricing.Observation
	// PendingPolls is how many describes report pending after launch.
	PendingPolls int
	// FailOn makes the named operation return the error.
	FailOn map[string]error

	region string
	seq    int
	calls  []string

	vpcs        map[string]*fakeVPC
	gateways    map[string]*fakeGateway
	routeTables map[string]*fakeRouteTable
	subnets     map[string]*fakeSubnet
	groups      map[string]*fakeGroup
	volumes     map[string]*fakeVolume
	keyPairs    map[string][]byte
	instances   map[string]*fakeInstance
	fleets      map[string]awscloud.FleetRequest
	tags        map[string]map[string]string
}

var _ awscloud.Provider = (*FakeCloud)(nil)

// NewFakeCloud creates an empty region with three zones and one image.
func NewFakeCloud(region string) *FakeCloud {
	return &FakeCloud{
		Zones: []string{region + "a", region + "b", region + "c"},
		Images: []awscloud.Image{
			{ID: "ami-0001", Name: "amzn-ami-hvm-2017.09.1-x86_64-gp2", CreationDate: "2017-11-20T00:00:00.000Z"},
			{ID: "ami-0002", Name: "amzn-ami-hvm-2018.03.0-x86_64-gp2", CreationDate: "2018-06-01T00:00:00.000Z"},
		},
		PendingPolls: 1,
		FailOn:       map[string]error{},
		region:       region,
		vpcs:         map[string]*fakeVPC{},
		gateways:     map[string]*fakeGateway{},
		routeTables:  map[string]*fakeRouteTable{},
		subnets:      map[string]*fakeSubnet{},
		groups:       map[string]*fakeGroup{},
		volumes:      map[string]*fakeVolume{},
		keyPairs:     map[string][]byte{},
		instances:    map[string]*fakeInstance{},
		fleets:       map[string]awscloud.FleetRequest{},
		tags:         map[string]map[string]string{},
	}
}

// Calls returns every operation invoked, in order.
func (f *FakeCloud) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times op was invoked.
func (f *FakeCloud) CallCount(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

// Fail makes op return err until cleared with Fail(op, nil).
func (f *FakeCloud) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.FailOn, op)
		return
	}
	f.FailOn[op] = err
}

// LiveResources returns the ids of everything that still exists and is not
// a terminated instance, a retired fleet, or a key pair. Sorted.
func (f *FakeCloud) LiveResources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []string
	for _, m := range []map[string]bool{
		keysOf(f.vpcs), keysOf(f.gateways), keysOf(f.subnets), keysOf(f.groups), keysOf(f.volumes), keysOf(f.fleets),
	} {
		for id := range m {
			ids = append(ids, id)
		}
	}
	for id, inst := range f.instances {
		if inst.state != awscloud.StateTerminated {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// KeyPair returns the imported public key for name.
func (f *FakeCloud) KeyPair(name string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.keyPairs[name]
	return k, ok
}

// Fleet returns a submitted fleet request.
func (f *FakeCloud) Fleet(id string) (awscloud.FleetRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.fleets[id]
	return r, ok
}

// Instance returns the launch options and state of an instance.
func (f *FakeCloud) Instance(id string) (awscloud.RunInstanceOpts, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[id]
	if !ok {
		return awscloud.RunInstanceOpts{}, "", false
	}
	return inst.opts, inst.state, true
}

// GroupRules returns the current rules of a security group.
func (f *FakeCloud) GroupRules(id string) (ingress, egress []record.Rule, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, nil, false
	}
	return append([]record.Rule(nil), g.ingress...), append([]record.Rule(nil), g.egress...), true
}

// Tags returns the tags of a resource.
func (f *FakeCloud) Tags(id string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.tags[id] {
		out[k] = v
	}
	return out
}

// VolumeAttachment returns the instance a volume is attached to.
func (f *FakeCloud) VolumeAttachment(id string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.volumes[id]
	if !ok {
		return "", false
	}
	return v.attachedTo, true
}

// AddVolume seeds a volume that was not created through the provider.
func (f *FakeCloud) AddVolume(id, zone string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes[id] = &fakeVolume{zone: zone}
}

func keysOf[V any](m map[string]V) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

// begin records the call and returns an injected failure, if any. Callers
// hold f.mu.
func (f *FakeCloud) begin(op, resource string) error {
	f.calls = append(f.calls, op)
	if err, ok := f.FailOn[op]; ok {
		return &awscloud.ProviderCallError{Op: op, Resource: resource, Err: err}
	}
	return nil
}

func (f *FakeCloud) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%04d", prefix, f.seq)
}

func apiError(op, resource, code string) error {
	return &awscloud.ProviderCallError{
		Op:       op,
		Resource: resource,
		Err:      &smithy.GenericAPIError{Code: code, Message: fmt.Sprintf("%s: %s", code, resource)},
	}
}

func (f *FakeCloud) setTags(id string, tags map[string]string) {
	if len(tags) == 0 {
		return
	}
	if f.tags[id] == nil {
		f.tags[id] = map[string]string{}
	}
	for k, v := range tags {
		f.tags[id][k] = v
	}
}

func (f *FakeCloud) forget(id string) {
	delete(f.tags, id)
}

// --- network ---

// CreateVPC implements awscloud.NetworkManager.
func (f *FakeCloud) CreateVPC(_ context.Context, cidr string, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateVPC", cidr); err != nil {
		return "", err
	}
	id := f.nextID("vpc")
	rtb := f.nextID("rtb")
	f.vpcs[id] = &fakeVPC{cidr: cidr, routeTable: rtb}
	f.routeTables[rtb] = &fakeRouteTable{vpc: id}
	f.setTags(id, tags)
	return id, nil
}

// DeleteVPC implements awscloud.NetworkManager.
func (f *FakeCloud) DeleteVPC(_ context.Context, vpcID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteVPC", vpcID); err != nil {
		return err
	}
	vpc, ok := f.vpcs[vpcID]
	if !ok {
		return apiError("DeleteVpc", vpcID, "InvalidVpcID.NotFound")
	}
	for _, sn := range f.subnets {
		if sn.vpc == vpcID {
			return apiError("DeleteVpc", vpcID, "DependencyViolation")
		}
	}
	for _, g := range f.groups {
		if g.vpc == vpcID {
			return apiError("DeleteVpc", vpcID, "DependencyViolation")
		}
	}
	for _, gw := range f.gateways {
		if gw.attachedTo == vpcID {
			return apiError("DeleteVpc", vpcID, "DependencyViolation")
		}
	}
	delete(f.routeTables, vpc.routeTable)
	f.forget(vpc.routeTable)
	delete(f.vpcs, vpcID)
	f.forget(vpcID)
	return nil
}

// CreateInternetGateway implements awscloud.NetworkManager.
func (f *FakeCloud) CreateInternetGateway(_ context.Context, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateInternetGateway", ""); err != nil {
		return "", err
	}
	id := f.nextID("igw")
	f.gateways[id] = &fakeGateway{}
	f.setTags(id, tags)
	return id, nil
}

// AttachInternetGateway implements awscloud.NetworkManager.
func (f *FakeCloud) AttachInternetGateway(_ context.Context, igwID, vpcID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AttachInternetGateway", igwID); err != nil {
		return err
	}
	gw, ok := f.gateways[igwID]
	if !ok {
		return apiError("AttachInternetGateway", igwID, "InvalidInternetGatewayID.NotFound")
	}
	if _, ok := f.vpcs[vpcID]; !ok {
		return apiError("AttachInternetGateway", vpcID, "InvalidVpcID.NotFound")
	}
	if gw.attachedTo != "" {
		return apiError("AttachInternetGateway", igwID, "Resource.AlreadyAssociated")
	}
	gw.attachedTo = vpcID
	return nil
}

// DetachInternetGateway implements awscloud.NetworkManager.
func (f *FakeCloud) DetachInternetGateway(_ context.Context, igwID, vpcID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DetachInternetGateway", igwID); err != nil {
		return err
	}
	gw, ok := f.gateways[igwID]
	if !ok {
		return apiError("DetachInternetGateway", igwID, "InvalidInternetGatewayID.NotFound")
	}
	if gw.attachedTo != vpcID {
		return apiError("DetachInternetGateway", igwID, "Gateway.NotAttached")
	}
	gw.attachedTo = ""
	return nil
}

// DeleteInternetGateway implements awscloud.NetworkManager.
func (f *FakeCloud) DeleteInternetGateway(_ context.Context, igwID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteInternetGateway", igwID); err != nil {
		return err
	}
	gw, ok := f.gateways[igwID]
	if !ok {
		return apiError("DeleteInternetGateway", igwID, "InvalidInternetGatewayID.NotFound")
	}
	if gw.attachedTo != "" {
		return apiError("DeleteInternetGateway", igwID, "DependencyViolation")
	}
	delete(f.gateways, igwID)
	f.forget(igwID)
	return nil
}

// MainRouteTable implements awscloud.NetworkManager.
func (f *FakeCloud) MainRouteTable(_ context.Context, vpcID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("MainRouteTable", vpcID); err != nil {
		return "", err
	}
	vpc, ok := f.vpcs[vpcID]
	if !ok {
		return "", awscloud.NotFoundError("DescribeRouteTables", vpcID)
	}
	return vpc.routeTable, nil
}

// CreateDefaultRoute implements awscloud.NetworkManager.
func (f *FakeCloud) CreateDefaultRoute(_ context.Context, routeTableID, igwID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateDefaultRoute", routeTableID); err != nil {
		return err
	}
	rtb, ok := f.routeTables[routeTableID]
	if !ok {
		return apiError("CreateRoute", routeTableID, "InvalidRouteTableID.NotFound")
	}
	if _, ok := f.gateways[igwID]; !ok {
		return apiError("CreateRoute", igwID, "InvalidGatewayID.NotFound")
	}
	if rtb.defaultRoute != "" {
		return apiError("CreateRoute", routeTableID, "RouteAlreadyExists")
	}
	rtb.defaultRoute = igwID
	return nil
}

// DeleteDefaultRoute implements awscloud.NetworkManager.
func (f *FakeCloud) DeleteDefaultRoute(_ context.Context, routeTableID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteDefaultRoute", routeTableID); err != nil {
		return err
	}
	rtb, ok := f.routeTables[routeTableID]
	if !ok {
		return apiError("DeleteRoute", routeTableID, "InvalidRouteTableID.NotFound")
	}
	if rtb.defaultRoute == "" {
		return apiError("DeleteRoute", routeTableID, "InvalidRoute.NotFound")
	}
	rtb.defaultRoute = ""
	return nil
}

// ListAvailabilityZones implements awscloud.NetworkManager.
func (f *FakeCloud) ListAvailabilityZones(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListAvailabilityZones", f.region); err != nil {
		return nil, err
	}
	zones := append([]string(nil), f.Zones...)
	sort.Strings(zones)
	return zones, nil
}

// CreateSubnet implements awscloud.NetworkManager.
func (f *FakeCloud) CreateSubnet(_ context.Context, vpcID, zone, cidr string, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateSubnet", cidr); err != nil {
		return "", err
	}
	if _, ok := f.vpcs[vpcID]; !ok {
		return "", apiError("CreateSubnet", vpcID, "InvalidVpcID.NotFound")
	}
	for _, sn := range f.subnets {
		if sn.vpc == vpcID && sn.cidr == cidr {
			return "", apiError("CreateSubnet", cidr, "InvalidSubnet.Conflict")
		}
	}
	id := f.nextID("subnet")
	f.subnets[id] = &fakeSubnet{vpc: vpcID, zone: zone, cidr: cidr}
	f.setTags(id, tags)
	return id, nil
}

// ListSubnets implements awscloud.NetworkManager.
func (f *FakeCloud) ListSubnets(_ context.Context, vpcID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListSubnets", vpcID); err != nil {
		return nil, err
	}
	var ids []string
	for id, sn := range f.subnets {
		if sn.vpc == vpcID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteSubnet implements awscloud.NetworkManager.
func (f *FakeCloud) DeleteSubnet(_ context.Context, subnetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteSubnet", subnetID); err != nil {
		return err
	}
	if _, ok := f.subnets[subnetID]; !ok {
		return apiError("DeleteSubnet", subnetID, "InvalidSubnetID.NotFound")
	}
	for _, inst := range f.instances {
		if inst.opts.SubnetID == subnetID && inst.state != awscloud.StateTerminated {
			return apiError("DeleteSubnet", subnetID, "DependencyViolation")
		}
	}
	delete(f.subnets, subnetID)
	f.forget(subnetID)
	return nil
}

// --- perimeters ---

// CreateSecurityGroup implements awscloud.PerimeterManager. New groups carry
// the default allow-all egress rule.
func (f *FakeCloud) CreateSecurityGroup(_ context.Context, vpcID, name, _ string, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateSecurityGroup", name); err != nil {
		return "", err
	}
	if _, ok := f.vpcs[vpcID]; !ok {
		return "", apiError("CreateSecurityGroup", vpcID, "InvalidVpcID.NotFound")
	}
	for _, g := range f.groups {
		if g.vpc == vpcID && g.name == name {
			return "", apiError("CreateSecurityGroup", name, "InvalidGroup.Duplicate")
		}
	}
	id := f.nextID("sg")
	f.groups[id] = &fakeGroup{
		vpc:    vpcID,
		name:   name,
		egress: []record.Rule{record.AllTrafficToCIDR(record.AnyIPv4)},
	}
	f.setTags(id, tags)
	return id, nil
}

func (f *FakeCloud) authorize(op, groupID string, rules []record.Rule, egress bool) error {
	if len(rules) == 0 {
		return nil
	}
	if err := f.begin(op, groupID); err != nil {
		return err
	}
	g, ok := f.groups[groupID]
	if !ok {
		return apiError(op, groupID, "InvalidGroup.NotFound")
	}
	target := &g.ingress
	if egress {
		target = &g.egress
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return &awscloud.ProviderCallError{Op: op, Resource: groupID, Err: err}
		}
		if r.PeerGroupID != "" {
			if _, ok := f.groups[r.PeerGroupID]; !ok {
				return apiError(op, r.PeerGroupID, "InvalidGroup.NotFound")
			}
		}
		if indexOfRule(*target, r) >= 0 {
			return apiError(op, groupID, "InvalidPermission.Duplicate")
		}
	}
	*target = append(*target, rules...)
	return nil
}

func (f *FakeCloud) revoke(op, groupID string, rules []record.Rule, egress bool) error {
	if len(rules) == 0 {
		return nil
	}
	if err := f.begin(op, groupID); err != nil {
		return err
	}
	g, ok := f.groups[groupID]
	if !ok {
		return apiError(op, groupID, "InvalidGroup.NotFound")
	}
	target := &g.ingress
	if egress {
		target = &g.egress
	}
	for _, r := range rules {
		if indexOfRule(*target, r) < 0 {
			return apiError(op, groupID, "InvalidPermission.NotFound")
		}
	}
	for _, r := range rules {
		i := indexOfRule(*target, r)
		*target = append((*target)[:i], (*target)[i+1:]...)
	}
	return nil
}

func indexOfRule(rules []record.Rule, r record.Rule) int {
	for i, existing := range rules {
		if existing == r {
			return i
		}
	}
	return -1
}

// AuthorizeIngress implements awscloud.PerimeterManager.
func (f *FakeCloud) AuthorizeIngress(_ context.Context, groupID string, rules []record.Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorize("AuthorizeIngress", groupID, rules, false)
}

// AuthorizeEgress implements awscloud.PerimeterManager.
func (f *FakeCloud) AuthorizeEgress(_ context.Context, groupID string, rules []record.Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorize("AuthorizeEgress", groupID, rules, true)
}

// RevokeIngress implements awscloud.PerimeterManager.
func (f *FakeCloud) RevokeIngress(_ context.Context, groupID string, rules []record.Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoke("RevokeIngress", groupID, rules, false)
}

// RevokeEgress implements awscloud.PerimeterManager.
func (f *FakeCloud) RevokeEgress(_ context.Context, groupID string, rules []record.Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoke("RevokeEgress", groupID, rules, true)
}

// DeleteSecurityGroup implements awscloud.PerimeterManager. A group still
// referenced by another group's rules or used by a live instance cannot be
// deleted.
func (f *FakeCloud) DeleteSecurityGroup(_ context.Context, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteSecurityGroup", groupID); err != nil {
		return err
	}
	if _, ok := f.groups[groupID]; !ok {
		return apiError("DeleteSecurityGroup", groupID, "InvalidGroup.NotFound")
	}
	for id, g := range f.groups {
		if id == groupID {
			continue
		}
		for _, r := range append(append([]record.Rule(nil), g.ingress...), g.egress...) {
			if r.PeerGroupID == groupID {
				return apiError("DeleteSecurityGroup", groupID, "DependencyViolation")
			}
		}
	}
	for _, inst := range f.instances {
		if inst.opts.SecurityGroupID == groupID && inst.state != awscloud.StateTerminated {
			return apiError("DeleteSecurityGroup", groupID, "DependencyViolation")
		}
	}
	delete(f.groups, groupID)
	f.forget(groupID)
	return nil
}

// --- storage ---

// CreateVolume implements awscloud.StorageManager.
func (f *FakeCloud) CreateVolume(_ context.Context, opts awscloud.VolumeOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateVolume", opts.Zone); err != nil {
		return "", err
	}
	id := f.nextID("vol")
	f.volumes[id] = &fakeVolume{zone: opts.Zone, sizeGiB: opts.SizeGiB}
	f.setTags(id, opts.Tags)
	return id, nil
}

// AttachVolume implements awscloud.StorageManager. The instance must be
// running in the volume's zone.
func (f *FakeCloud) AttachVolume(_ context.Context, volumeID, instanceID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("AttachVolume", volumeID); err != nil {
		return err
	}
	vol, ok := f.volumes[volumeID]
	if !ok {
		return apiError("AttachVolume", volumeID, "InvalidVolume.NotFound")
	}
	inst, ok := f.instances[instanceID]
	if !ok {
		return apiError("AttachVolume", instanceID, "InvalidInstanceID.NotFound")
	}
	if inst.state != awscloud.StateRunning {
		return apiError("AttachVolume", instanceID, "IncorrectState")
	}
	if inst.zone != vol.zone {
		return apiError("AttachVolume", volumeID, "InvalidVolume.ZoneMismatch")
	}
	if vol.attachedTo != "" {
		return apiError("AttachVolume", volumeID, "VolumeInUse")
	}
	vol.attachedTo = instanceID
	return nil
}

// DeleteVolume implements awscloud.StorageManager.
func (f *FakeCloud) DeleteVolume(_ context.Context, volumeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteVolume", volumeID); err != nil {
		return err
	}
	vol, ok := f.volumes[volumeID]
	if !ok {
		return apiError("DeleteVolume", volumeID, "InvalidVolume.NotFound")
	}
	if vol.attachedTo != "" {
		return apiError("DeleteVolume", volumeID, "VolumeInUse")
	}
	delete(f.volumes, volumeID)
	f.forget(volumeID)
	return nil
}

// --- credentials ---

// KeyPairExists implements awscloud.CredentialManager.
func (f *FakeCloud) KeyPairExists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("KeyPairExists", name); err != nil {
		return false, err
	}
	_, ok := f.keyPairs[name]
	return ok, nil
}

// ImportKeyPair implements awscloud.CredentialManager.
func (f *FakeCloud) ImportKeyPair(_ context.Context, name string, publicKey []byte, tags map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ImportKeyPair", name); err != nil {
		return err
	}
	if _, ok := f.keyPairs[name]; ok {
		return apiError("ImportKeyPair", name, "InvalidKeyPair.Duplicate")
	}
	f.keyPairs[name] = append([]byte(nil), publicKey...)
	f.setTags(name, tags)
	return nil
}

// ImportKeyPairDirect seeds a key pair as if created outside this run.
func (f *FakeCloud) ImportKeyPairDirect(name string, publicKey []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyPairs[name] = publicKey
}

// --- compute ---

// FindNewestImage implements awscloud.ComputeManager. NamePattern is a
// shell glob.
func (f *FakeCloud) FindNewestImage(_ context.Context, filter awscloud.ImageFilter) (*awscloud.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("FindNewestImage", filter.NamePattern); err != nil {
		return nil, err
	}
	var best *awscloud.Image
	for i := range f.Images {
		img := f.Images[i]
		if ok, _ := path.Match(filter.NamePattern, img.Name); !ok {
			continue
		}
		if best == nil || img.CreationDate > best.CreationDate {
			best = &img
		}
	}
	if best == nil {
		return nil, awscloud.NotFoundError("DescribeImages", filter.NamePattern)
	}
	return best, nil
}

// RunInstance implements awscloud.ComputeManager.
func (f *FakeCloud) RunInstance(_ context.Context, opts awscloud.RunInstanceOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("RunInstance", opts.InstanceType); err != nil {
		return "", err
	}
	sn, ok := f.subnets[opts.SubnetID]
	if !ok {
		return "", apiError("RunInstances", opts.SubnetID, "InvalidSubnetID.NotFound")
	}
	if _, ok := f.groups[opts.SecurityGroupID]; !ok {
		return "", apiError("RunInstances", opts.SecurityGroupID, "InvalidGroup.NotFound")
	}
	if _, ok := f.keyPairs[opts.KeyName]; !ok {
		return "", apiError("RunInstances", opts.KeyName, "InvalidKeyPair.NotFound")
	}
	id := f.nextID("i")
	f.instances[id] = &fakeInstance{opts: opts, zone: sn.zone, state: awscloud.StatePending, host: 10 + f.seq%240}
	f.setTags(id, opts.Tags)
	return id, nil
}

// DescribeInstance implements awscloud.ComputeManager. Pending instances
// become running after PendingPolls describes; shutting-down instances
// become terminated on the next describe.
func (f *FakeCloud) DescribeInstance(_ context.Context, instanceID string) (*awscloud.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DescribeInstance", instanceID); err != nil {
		return nil, err
	}
	inst, ok := f.instances[instanceID]
	if !ok {
		return nil, apiError("DescribeInstances", instanceID, "InvalidInstanceID.NotFound")
	}

	switch inst.state {
	case awscloud.StatePending:
		if inst.polls >= f.PendingPolls {
			inst.state = awscloud.StateRunning
		}
		inst.polls++
	case awscloud.StateShuttingDown:
		inst.state = awscloud.StateTerminated
		for _, vol := range f.volumes {
			if vol.attachedTo == instanceID {
				vol.attachedTo = ""
			}
		}
	}

	return &awscloud.Instance{
		ID:        instanceID,
		State:     inst.state,
		Zone:      inst.zone,
		PrivateIP: fmt.Sprintf("10.0.0.%d", inst.host),
		PublicIP:  fmt.Sprintf("203.0.113.%d", inst.host),
	}, nil
}

// TerminateInstance implements awscloud.ComputeManager.
func (f *FakeCloud) TerminateInstance(_ context.Context, instanceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("TerminateInstance", instanceID); err != nil {
		return err
	}
	inst, ok := f.instances[instanceID]
	if !ok || inst.state == awscloud.StateTerminated {
		return apiError("TerminateInstances", instanceID, "InvalidInstanceID.NotFound")
	}
	inst.state = awscloud.StateShuttingDown
	return nil
}

// --- fleet ---

// RequestSpotFleet implements awscloud.FleetManager.
func (f *FakeCloud) RequestSpotFleet(_ context.Context, req awscloud.FleetRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("RequestSpotFleet", req.IAMFleetRole); err != nil {
		return "", err
	}
	for _, spec := range req.LaunchSpecs {
		for _, sn := range spec.SubnetIDs {
			if _, ok := f.subnets[sn]; !ok {
				return "", apiError("RequestSpotFleet", sn, "InvalidSubnetID.NotFound")
			}
		}
		if _, ok := f.groups[spec.SecurityGroupID]; !ok {
			return "", apiError("RequestSpotFleet", spec.SecurityGroupID, "InvalidGroup.NotFound")
		}
	}
	id := f.nextID("sfr")
	f.fleets[id] = req
	f.setTags(id, req.Tags)
	return id, nil
}

// CancelSpotFleet implements awscloud.FleetManager.
func (f *FakeCloud) CancelSpotFleet(_ context.Context, requestID string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CancelSpotFleet", requestID); err != nil {
		return err
	}
	if _, ok := f.fleets[requestID]; !ok {
		return apiError("CancelSpotFleetRequests", requestID, "fleetRequestIdDoesNotExist")
	}
	delete(f.fleets, requestID)
	f.forget(requestID)
	return nil
}

// --- tags ---

// CreateTags implements awscloud.TagManager.
func (f *FakeCloud) CreateTags(_ context.Context, resourceIDs []string, tags map[string]string) error {
	if len(resourceIDs) == 0 || len(tags) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateTags", resourceIDs[0]); err != nil {
		return err
	}
	for _, id := range resourceIDs {
		f.setTags(id, tags)
	}
	return nil
}

// DeleteTags implements awscloud.TagManager.
func (f *FakeCloud) DeleteTags(_ context.Context, resourceIDs []string, keys []string) error {
	if len(resourceIDs) == 0 || len(keys) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteTags", resourceIDs[0]); err != nil {
		return err
	}
	for _, id := range resourceIDs {
		for _, k := range keys {
			delete(f.tags[id], k)
		}
	}
	return nil
}

// --- pricing ---

// SpotPriceHistory implements pricing.HistorySource.
func (f *FakeCloud) SpotPriceHistory(_ context.Context, q pricing.HistoryQuery) ([]pricing.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("SpotPriceHistory", f.region); err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, t := range q.InstanceTypes {
		wanted[t] = true
	}
	var out []pricing.Observation
	for _, o := range f.History {
		if !wanted[o.InstanceType] || o.Timestamp.Before(q.Since) {
			continue
		}
		if q.ProductDescription != "" && o.ProductDescription != q.ProductDescription {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}
