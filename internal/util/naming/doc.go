// Package naming provides consistent names for cluster resources.
//
// Security groups follow {cluster}_{role}, the key pair is {cluster}_{region}
// (one per cluster name and region), and the record file is
// {cluster}_ClusterResources.json.
package naming
