package record

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// SchemaVersion is the record schema written by this build.
const SchemaVersion = 1

// ErrUnsupportedSchema is returned when a record was written by a newer build.
var ErrUnsupportedSchema = errors.New("unsupported cluster record schema version")

// ClusterRecord is the durable list of every resource a cluster owns.
type ClusterRecord struct {
	SchemaVersion int    `json:"schemaVersion"`
	Name          string `json:"name"`
	Region        string `json:"region"`
	NetworkPrefix string `json:"networkPrefix,omitempty"`

	NetworkID    string `json:"networkId,omitempty"`
	GatewayID    string `json:"gatewayId,omitempty"`
	RouteTableID string `json:"routeTableId,omitempty"`

	// Subnets maps availability zone to its subnet.
	Subnets map[string]SubnetRecord `json:"subnets,omitempty"`

	Perimeters Perimeters `json:"perimeters,omitempty"`

	Storage *StorageVolumeRecord `json:"storage,omitempty"`

	KeyPairName    string `json:"keyPairName,omitempty"`
	KeyPairCreated bool   `json:"keyPairCreated,omitempty"`
	PrivateKeyPath string `json:"privateKeyPath,omitempty"`

	ControllerZone       string `json:"controllerZone,omitempty"`
	ImageID              string `json:"imageId,omitempty"`
	ControllerInstanceID string `json:"controllerInstanceId,omitempty"`
	ControllerPrivateIP  string `json:"controllerPrivateIp,omitempty"`
	ControllerPublicIP   string `json:"controllerPublicIp,omitempty"`

	Bid            *BidRecord `json:"bid,omitempty"`
	FleetRequestID string     `json:"fleetRequestId,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// SubnetRecord is one per-zone subnet.
type SubnetRecord struct {
	ID   string `json:"id"`
	CIDR string `json:"cidr"`
}

// Perimeters groups the three cluster security groups.
type Perimeters struct {
	Controller *SecurityPerimeterRecord `json:"controller,omitempty"`
	Worker     *SecurityPerimeterRecord `json:"worker,omitempty"`
	Storage    *SecurityPerimeterRecord `json:"storage,omitempty"`
}

// TeardownOrder returns the recorded perimeters in the order they are
// dismantled: storage, worker, controller.
func (p Perimeters) TeardownOrder() []*SecurityPerimeterRecord {
	var out []*SecurityPerimeterRecord
	for _, sg := range []*SecurityPerimeterRecord{p.Storage, p.Worker, p.Controller} {
		if sg != nil {
			out = append(out, sg)
		}
	}
	return out
}

// SecurityPerimeterRecord is a security group and every rule granted on it.
type SecurityPerimeterRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Ingress []Rule `json:"ingress"`
	Egress  []Rule `json:"egress"`
}

// StorageVolumeRecord is the persistent data volume shared by the controller.
type StorageVolumeRecord struct {
	ID             string `json:"id"`
	Zone           string `json:"zone,omitempty"`
	MountPath      string `json:"mountPath"`
	DevicePath     string `json:"devicePath"`
	SizeGiB        int32  `json:"sizeGiB"`
	VolumeType     string `json:"volumeType,omitempty"`
	KeepOnTeardown bool   `json:"keepOnTeardown"`
	AttachedTo     string `json:"attachedTo,omitempty"`
}

// BidRecord keeps the prices submitted with the fleet request.
type BidRecord struct {
	Policy  string            `json:"policy"`
	Ceiling string            `json:"ceiling"`
	PerType map[string]string `json:"perType"`
}

// New returns an empty record for a cluster.
func New(name, region string, now time.Time) *ClusterRecord {
	return &ClusterRecord{
		SchemaVersion: SchemaVersion,
		Name:          name,
		Region:        region,
		Subnets:       make(map[string]SubnetRecord),
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
}

// Validate checks a decoded record before it is used.
func (r *ClusterRecord) Validate() error {
	if r.SchemaVersion > SchemaVersion {
		return fmt.Errorf("%w: %d (max %d)", ErrUnsupportedSchema, r.SchemaVersion, SchemaVersion)
	}
	if r.Name == "" {
		return errors.New("cluster record has no name")
	}
	if r.Region == "" {
		return fmt.Errorf("cluster record %q has no region", r.Name)
	}
	return nil
}

// SubnetIDs returns the recorded subnet ids ordered by zone.
func (r *ClusterRecord) SubnetIDs() []string {
	zones := make([]string, 0, len(r.Subnets))
	for zone := range r.Subnets {
		zones = append(zones, zone)
	}
	sort.Strings(zones)

	ids := make([]string, 0, len(zones))
	for _, zone := range zones {
		ids = append(ids, r.Subnets[zone].ID)
	}
	return ids
}

// ResourceIDs returns every provider id held by the record, sorted.
func (r *ClusterRecord) ResourceIDs() []string {
	var ids []string
	add := func(id string) {
		if id != "" {
			ids = append(ids, id)
		}
	}

	add(r.NetworkID)
	add(r.GatewayID)
	add(r.RouteTableID)
	for _, sn := range r.Subnets {
		add(sn.ID)
	}
	for _, sg := range r.Perimeters.TeardownOrder() {
		add(sg.ID)
	}
	if r.Storage != nil {
		add(r.Storage.ID)
	}
	add(r.KeyPairName)
	add(r.ControllerInstanceID)
	add(r.FleetRequestID)

	sort.Strings(ids)
	return ids
}

// Empty reports whether the record holds no provider resources.
func (r *ClusterRecord) Empty() bool {
	return len(r.ResourceIDs()) == 0
}

// Touch stamps the record as modified.
func (r *ClusterRecord) Touch(now time.Time) {
	r.UpdatedAt = now.UTC()
}
