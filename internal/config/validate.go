package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"regexp"

	"github.com/imamik/spotcluster/internal/pricing"
)

var clusterNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,62}$`)

// Validate checks the configuration. Every problem found is returned,
// joined, as *ConfigurationError values.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if c.ClusterName == "" {
		add(invalid("cluster_name", "is required"))
	} else if !clusterNamePattern.MatchString(c.ClusterName) {
		add(invalid("cluster_name", fmt.Sprintf("%q may only contain letters, digits, '-' and '_'", c.ClusterName)))
	}
	if c.Region == "" {
		add(invalid("region", "is required"))
	}
	add(validateNetworkPrefix(c.NetworkPrefix))
	add(c.validateStorage())
	add(c.validateFleet())
	add(c.validateBid())
	add(c.validateTemplates())

	return errors.Join(errs...)
}

// ValidateForTeardown checks only what dismantling needs.
func (c *Config) ValidateForTeardown() error {
	var errs []error
	if c.ClusterName == "" {
		errs = append(errs, invalid("cluster_name", "is required"))
	}
	if c.Region == "" {
		errs = append(errs, invalid("region", "is required"))
	}
	return errors.Join(errs...)
}

func validateNetworkPrefix(prefix string) error {
	ip, network, err := net.ParseCIDR(prefix)
	if err != nil {
		return &ConfigurationError{Field: "network_prefix", Reason: fmt.Sprintf("%q is not a CIDR block", prefix), Err: err}
	}
	if ip.To4() == nil {
		return invalid("network_prefix", "only IPv4 prefixes are supported")
	}
	if !ip.Equal(network.IP) {
		return invalid("network_prefix", fmt.Sprintf("%q has host bits set", prefix))
	}
	if ones, _ := network.Mask.Size(); ones < 16 || ones > 24 {
		return invalid("network_prefix", fmt.Sprintf("prefix length /%d must be between /16 and /24", ones))
	}
	return nil
}

func (c *Config) validateStorage() error {
	s := c.Storage
	switch {
	case s.SizeGiB <= 0:
		return invalid("storage.size_gib", "must be positive")
	case s.DevicePath == "":
		return invalid("storage.device_path", "is required")
	case !path.IsAbs(s.MountPath):
		return invalid("storage.mount_path", fmt.Sprintf("%q must be absolute", s.MountPath))
	}
	return nil
}

func (c *Config) validateFleet() error {
	f := c.Fleet
	switch {
	case f.TargetCapacity <= 0:
		return invalid("fleet.target_capacity", "must be positive")
	case f.IAMFleetRole == "":
		return invalid("fleet.iam_fleet_role", "is required")
	case len(f.InstanceTypes) == 0:
		return invalid("fleet.instance_types", "at least one instance type is required")
	case f.Validity <= 0:
		return invalid("fleet.validity", "must be positive")
	}

	seen := make(map[string]bool, len(f.InstanceTypes))
	for _, it := range f.InstanceTypes {
		if it.Type == "" {
			return invalid("fleet.instance_types", "instance type name is empty")
		}
		if seen[it.Type] {
			return invalid("fleet.instance_types", fmt.Sprintf("%s is listed twice", it.Type))
		}
		seen[it.Type] = true
		if it.Weight <= 0 {
			return invalid("fleet.instance_types", fmt.Sprintf("%s weight must be positive", it.Type))
		}
	}
	return nil
}

func (c *Config) validateBid() error {
	params, err := c.BidParams()
	if err != nil {
		return &ConfigurationError{Field: "bid.policy", Reason: fmt.Sprintf("%q is not a known policy", c.Bid.Policy), Err: err}
	}
	if err := params.Validate(); err != nil {
		return &ConfigurationError{Field: "bid", Reason: "invalid bid parameters", Err: err}
	}
	return nil
}

func (c *Config) validateTemplates() error {
	for field, p := range map[string]string{
		"templates.controller": c.Templates.Controller,
		"templates.worker":     c.Templates.Worker,
	} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return &ConfigurationError{Field: field, Reason: fmt.Sprintf("template %s is not readable", p), Err: err}
		}
	}
	return nil
}

// BidParams converts the bid settings into advisor parameters.
func (c *Config) BidParams() (pricing.Params, error) {
	policy, err := pricing.ParsePolicy(c.Bid.Policy)
	if err != nil {
		return pricing.Params{}, err
	}
	return pricing.Params{
		Policy:             policy,
		Inflation:          c.Bid.Inflation,
		Percentile:         c.Bid.Percentile,
		Window:             c.Bid.Window,
		ProductDescription: c.Bid.ProductDescription,
	}, nil
}
