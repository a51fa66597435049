package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var sectionComments = map[string]string{
	"cluster_name":   "Name used for every resource tag and security group.",
	"network_prefix": "IPv4 block for the private network, split into one subnet per zone.",
	"record":         "Where the cluster record is kept: a local path or s3://bucket/key.",
	"controller":     "On-demand controller node. Leave zone empty to pick one at random.",
	"storage":        "Persistent volume attached to the controller.",
	"fleet":          "Spot worker pool. Weights are capacity units per instance.",
	"bid":            "Bid policy: automatic or cost-minimizing.",
	"pricing":        "Public on-demand price list.",
}

// DefaultYAML renders a commented starter configuration.
func DefaultYAML(clusterName, region string) ([]byte, error) {
	cfg := Default()
	cfg.ClusterName = clusterName
	cfg.Region = region
	cfg.Record = ""

	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode default config: %w", err)
	}

	if doc.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(doc.Content); i += 2 {
			key := doc.Content[i]
			if comment, ok := sectionComments[key.Value]; ok {
				key.HeadComment = comment
			}
			if key.Value == "fleet" {
				setFleetPlaceholders(doc.Content[i+1])
			}
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to write default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setFleetPlaceholders(fleet *yaml.Node) {
	for i := 0; i+1 < len(fleet.Content); i += 2 {
		switch fleet.Content[i].Value {
		case "target_capacity":
			fleet.Content[i].LineComment = "required"
		case "iam_fleet_role":
			fleet.Content[i].LineComment = "required: arn of the spot fleet role"
		}
	}
}
