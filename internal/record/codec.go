package record

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"sigs.k8s.io/yaml"
)

// Format selects the on-disk encoding of a record.
type Format int

const (
	// FormatJSON is the default encoding.
	FormatJSON Format = iota
	// FormatYAML is chosen for .yaml and .yml locations.
	FormatYAML
)

// FormatFor picks the encoding from a location's extension.
func FormatFor(location string) Format {
	switch strings.ToLower(path.Ext(location)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes a record.
func Encode(rec *ClusterRecord, format Format) ([]byte, error) {
	if rec.SchemaVersion == 0 {
		rec.SchemaVersion = SchemaVersion
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode cluster record: %w", err)
	}
	if format == FormatYAML {
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cluster record as yaml: %w", err)
		}
	}
	return data, nil
}

// Decode parses and validates a record. A missing schema version is read as
// the current one.
func Decode(data []byte, format Format) (*ClusterRecord, error) {
	if format == FormatYAML {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cluster record yaml: %w", err)
		}
		data = converted
	}

	var rec ClusterRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse cluster record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if rec.SchemaVersion == 0 {
		rec.SchemaVersion = SchemaVersion
	}
	if rec.Subnets == nil {
		rec.Subnets = make(map[string]SubnetRecord)
	}
	return &rec, nil
}
