package naming

import "fmt"

// Naming functions for cluster resources.
// Names are derived from the cluster name (and region for keys) so that a
// re-run finds the resources created by an earlier, interrupted run.

func ControllerPerimeter(cluster string) string {
	return fmt.Sprintf("%s_controller", cluster)
}

func WorkerPerimeter(cluster string) string {
	return fmt.Sprintf("%s_engine", cluster)
}

func StoragePerimeter(cluster string) string {
	return fmt.Sprintf("%s_data", cluster)
}

func KeyPair(cluster, region string) string {
	return fmt.Sprintf("%s_%s", cluster, region)
}

// RecordFile is the default file name of a persisted cluster record.
func RecordFile(cluster string) string {
	return fmt.Sprintf("%s_ClusterResources.json", cluster)
}
