package record

import (
	"errors"
	"fmt"
)

// Protocol values understood by the provider.
const (
	ProtocolAll = "-1"
	ProtocolTCP = "tcp"
)

// Well known ports.
const (
	PortSSH int32 = 22
	PortNFS int32 = 2049
)

// AnyIPv4 is the CIDR matching every IPv4 address.
const AnyIPv4 = "0.0.0.0/0"

// Rule is a single security group permission.
// Exactly one peer is set: either PeerGroupID or CIDR.
type Rule struct {
	Protocol      string `json:"protocol"`
	FromPort      int32  `json:"fromPort,omitempty"`
	ToPort        int32  `json:"toPort,omitempty"`
	PeerGroupID   string `json:"peerGroupId,omitempty"`
	PeerNetworkID string `json:"peerNetworkId,omitempty"`
	CIDR          string `json:"cidr,omitempty"`
}

// AllTrafficFromGroup allows every protocol and port from the peer group.
func AllTrafficFromGroup(groupID, networkID string) Rule {
	return Rule{Protocol: ProtocolAll, PeerGroupID: groupID, PeerNetworkID: networkID}
}

// TCPPortFromGroup allows one TCP port to or from the peer group.
func TCPPortFromGroup(port int32, groupID, networkID string) Rule {
	return Rule{Protocol: ProtocolTCP, FromPort: port, ToPort: port, PeerGroupID: groupID, PeerNetworkID: networkID}
}

// TCPPortFromCIDR allows one TCP port to or from an address range.
func TCPPortFromCIDR(port int32, cidr string) Rule {
	return Rule{Protocol: ProtocolTCP, FromPort: port, ToPort: port, CIDR: cidr}
}

// AllTrafficToCIDR matches every protocol and port to an address range.
// It describes the provider's default egress rule.
func AllTrafficToCIDR(cidr string) Rule {
	return Rule{Protocol: ProtocolAll, CIDR: cidr}
}

// HasPorts reports whether the rule carries a port range.
func (r Rule) HasPorts() bool {
	return r.Protocol != ProtocolAll
}

// Validate checks the rule shape.
func (r Rule) Validate() error {
	if r.Protocol == "" {
		return errors.New("rule protocol is required")
	}
	hasGroup := r.PeerGroupID != ""
	hasCIDR := r.CIDR != ""
	if hasGroup == hasCIDR {
		return fmt.Errorf("rule %s must have exactly one peer (group or cidr)", r)
	}
	if r.HasPorts() && r.FromPort > r.ToPort {
		return fmt.Errorf("rule %s has an inverted port range", r)
	}
	return nil
}

func (r Rule) String() string {
	peer := r.CIDR
	if r.PeerGroupID != "" {
		peer = r.PeerGroupID
	}
	if !r.HasPorts() {
		return fmt.Sprintf("all<->%s", peer)
	}
	if r.FromPort == r.ToPort {
		return fmt.Sprintf("%s/%d<->%s", r.Protocol, r.FromPort, peer)
	}
	return fmt.Sprintf("%s/%d-%d<->%s", r.Protocol, r.FromPort, r.ToPort, peer)
}
