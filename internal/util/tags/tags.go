// Package tags builds the tag sets stamped on every cluster resource.
//
// Each resource carries a human readable Name ("<cluster> <kind>") and a
// Cluster key so that resources can be found in the console and cleaned
// up by hand if a cluster record is ever lost.
package tags

// Standard tag keys.
const (
	KeyName      = "Name"
	KeyCluster   = "Cluster"
	KeyManagedBy = "spotcluster:managed-by"
	KeyRole      = "spotcluster:role"
)

// ManagedBy is the value written under KeyManagedBy.
const ManagedBy = "spotcluster"

// Builder provides a fluent interface for building resource tags.
type Builder struct {
	cluster string
	tags    map[string]string
}

// NewBuilder creates a builder with the cluster tags pre-set.
func NewBuilder(cluster string) *Builder {
	return &Builder{
		cluster: cluster,
		tags: map[string]string{
			KeyCluster:   cluster,
			KeyManagedBy: ManagedBy,
		},
	}
}

// WithKind sets the Name tag to "<cluster> <kind>".
func (b *Builder) WithKind(kind string) *Builder {
	b.tags[KeyName] = b.cluster + " " + kind
	return b
}

// WithRole adds a role tag (controller, worker, storage).
func (b *Builder) WithRole(role string) *Builder {
	b.tags[KeyRole] = role
	return b
}

// Merge adds all tags from extra, overriding existing keys.
func (b *Builder) Merge(extra map[string]string) *Builder {
	for k, v := range extra {
		b.tags[k] = v
	}
	return b
}

// Build returns a copy of the tag map.
func (b *Builder) Build() map[string]string {
	out := make(map[string]string, len(b.tags))
	for k, v := range b.tags {
		out[k] = v
	}
	return out
}

// For is shorthand for NewBuilder(cluster).WithKind(kind).Build().
func For(cluster, kind string) map[string]string {
	return NewBuilder(cluster).WithKind(kind).Build()
}
