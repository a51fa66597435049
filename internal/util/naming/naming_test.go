package naming

import "testing"

func TestNamingFunctions(t *testing.T) {
	cluster := "bork"

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{name: "ControllerPerimeter", got: ControllerPerimeter(cluster), expected: "bork_controller"},
		{name: "WorkerPerimeter", got: WorkerPerimeter(cluster), expected: "bork_engine"},
		{name: "StoragePerimeter", got: StoragePerimeter(cluster), expected: "bork_data"},
		{name: "KeyPair", got: KeyPair(cluster, "ca-central-1"), expected: "bork_ca-central-1"},
		{name: "RecordFile", got: RecordFile(cluster), expected: "bork_ClusterResources.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}
}
