package config

import (
	"encoding/binary"
	"fmt"
	"net"
)

// CIDRSubnet calculates a subnet address given a network address, a netmask
// size increase, and a subnet number, like Terraform's cidrsubnet.
// Only IPv4 is supported.
func CIDRSubnet(prefix string, newbits int, netnum int) (string, error) {
	_, network, err := net.ParseCIDR(prefix)
	if err != nil {
		return "", fmt.Errorf("invalid CIDR prefix: %w", err)
	}

	ip := network.IP.To4()
	if ip == nil {
		return "", fmt.Errorf("only IPv4 addresses are supported, got IPv6: %s", prefix)
	}
	if newbits < 0 || netnum < 0 {
		return "", fmt.Errorf("newbits and netnum must not be negative")
	}

	maskSize, totalBits := network.Mask.Size()
	newMaskSize := maskSize + newbits
	if newMaskSize > totalBits {
		return "", fmt.Errorf("prefix extension of %d bits is too large for %s", newbits, prefix)
	}

	maxSubnets := 1 << newbits
	if netnum >= maxSubnets {
		return "", fmt.Errorf("subnet number %d exceeds max subnets %d", netnum, maxSubnets)
	}

	subnetSize := uint64(1) << (totalBits - newMaskSize)
	// #nosec G115
	base := uint64(binary.BigEndian.Uint32(ip)) + uint64(netnum)*subnetSize

	out := make(net.IP, 4)
	// #nosec G115
	binary.BigEndian.PutUint32(out, uint32(base))
	return fmt.Sprintf("%s/%d", out.String(), newMaskSize), nil
}

// SplitBits returns the smallest k with 2^k >= n.
func SplitBits(n int) int {
	k := 0
	for (1 << k) < n {
		k++
	}
	return k
}

// ZoneSubnets carves prefix into one block per zone, in zone order.
func ZoneSubnets(prefix string, zones []string) (map[string]string, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("no availability zones to place subnets in")
	}
	bits := SplitBits(len(zones))
	out := make(map[string]string, len(zones))
	for i, zone := range zones {
		cidr, err := CIDRSubnet(prefix, bits, i)
		if err != nil {
			return nil, fmt.Errorf("subnet for zone %s: %w", zone, err)
		}
		out[zone] = cidr
	}
	return out, nil
}
