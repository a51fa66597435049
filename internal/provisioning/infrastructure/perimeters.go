package infrastructure

import (
	"fmt"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/record"
	"github.com/imamik/spotcluster/internal/util/naming"
)

// Perimeter roles.
const (
	RoleController = "controller"
	RoleWorker     = "worker"
	RoleStorage    = "storage"
)

// PerimetersPhase creates the controller, worker and storage security
// groups and grants their rules.
type PerimetersPhase struct{}

// NewPerimetersPhase creates a new perimeters phase.
func NewPerimetersPhase() *PerimetersPhase {
	return &PerimetersPhase{}
}

// Name implements the provisioning.Phase interface.
func (p *PerimetersPhase) Name() string {
	return PhasePerimeters
}

// Provision implements the provisioning.Phase interface.
func (p *PerimetersPhase) Provision(ctx *provisioning.Context) error {
	if err := requireNetwork(ctx, PhasePerimeters); err != nil {
		return err
	}
	rec := ctx.Record
	cluster := ctx.Config.ClusterName

	// Every group must exist before any rule can reference it.
	groups := []struct {
		role, name, description string
		slot                    **record.SecurityPerimeterRecord
	}{
		{RoleController, naming.ControllerPerimeter(cluster), "cluster controller", &rec.Perimeters.Controller},
		{RoleWorker, naming.WorkerPerimeter(cluster), "spot workers", &rec.Perimeters.Worker},
		{RoleStorage, naming.StoragePerimeter(cluster), "shared data volume", &rec.Perimeters.Storage},
	}
	for _, g := range groups {
		if err := p.ensureGroup(ctx, g.role, g.name, g.description, g.slot); err != nil {
			return err
		}
	}

	plan := PlanRules(rec.NetworkID, rec.Perimeters.Controller.ID, rec.Perimeters.Worker.ID, rec.Perimeters.Storage.ID)
	storage := rec.Perimeters.Storage

	if err := p.grant(ctx, rec.Perimeters.Controller, plan.ControllerIngress, false); err != nil {
		return err
	}
	if err := p.grant(ctx, rec.Perimeters.Worker, plan.WorkerIngress, false); err != nil {
		return err
	}
	if err := p.grant(ctx, storage, plan.StorageIngress, false); err != nil {
		return err
	}

	if len(storage.Egress) == 0 {
		// Storage may only answer the controller and workers.
		err := ctx.Cloud.RevokeEgress(ctx, storage.ID, []record.Rule{record.AllTrafficToCIDR(record.AnyIPv4)})
		if err != nil && !awscloud.IsNotFound(err) {
			return fmt.Errorf("failed to revoke default egress on %s: %w", storage.Name, err)
		}
	}
	return p.grant(ctx, storage, plan.StorageEgress, true)
}

func (p *PerimetersPhase) ensureGroup(ctx *provisioning.Context, role, name, description string, slot **record.SecurityPerimeterRecord) error {
	if *slot != nil {
		provisioning.LogResourceExists(ctx.Observer, PhasePerimeters, "security-group", name, (*slot).ID)
		return nil
	}

	provisioning.LogResourceCreating(ctx.Observer, PhasePerimeters, "security-group", name)
	id, err := ctx.Cloud.CreateSecurityGroup(ctx, ctx.Record.NetworkID, name, description, ctx.RoleTags(role+" perimeter", role))
	if err != nil {
		provisioning.LogResourceFailed(ctx.Observer, PhasePerimeters, "security-group", name, err)
		return fmt.Errorf("failed to create security group %s: %w", name, err)
	}
	*slot = &record.SecurityPerimeterRecord{ID: id, Name: name}
	if err := ctx.Checkpoint(); err != nil {
		return err
	}
	provisioning.LogResourceCreated(ctx.Observer, PhasePerimeters, "security-group", name, id)
	return nil
}

// grant authorizes rules on a group unless the record already holds them,
// then records them verbatim.
func (p *PerimetersPhase) grant(ctx *provisioning.Context, sg *record.SecurityPerimeterRecord, rules []record.Rule, egress bool) error {
	direction, recorded := "ingress", &sg.Ingress
	authorize := ctx.Cloud.AuthorizeIngress
	if egress {
		direction, recorded = "egress", &sg.Egress
		authorize = ctx.Cloud.AuthorizeEgress
	}
	if len(*recorded) > 0 {
		return nil
	}

	if err := authorize(ctx, sg.ID, rules); err != nil && !awscloud.IsAlreadyExists(err) {
		return fmt.Errorf("failed to authorize %s on %s: %w", direction, sg.Name, err)
	}
	*recorded = append([]record.Rule(nil), rules...)
	if err := ctx.Checkpoint(); err != nil {
		return err
	}

	ctx.Observer.Event(provisioning.Event{
		Type:     provisioning.EventResourceCreated,
		Phase:    PhasePerimeters,
		Resource: sg.Name,
		Message:  fmt.Sprintf("granted %d %s rules", len(rules), direction),
		Fields:   map[string]string{"type": "rules", "id": sg.ID},
	})
	return nil
}

// RulePlan is the complete rule set of the three perimeters.
type RulePlan struct {
	ControllerIngress []record.Rule
	WorkerIngress     []record.Rule
	StorageIngress    []record.Rule
	StorageEgress     []record.Rule
}

// PlanRules builds the perimeter rules. Storage is reachable over NFS only,
// and only the controller accepts SSH from outside.
func PlanRules(networkID, controllerID, workerID, storageID string) RulePlan {
	return RulePlan{
		ControllerIngress: []record.Rule{
			record.AllTrafficFromGroup(workerID, networkID),
			record.TCPPortFromGroup(record.PortNFS, storageID, networkID),
			record.TCPPortFromCIDR(record.PortSSH, record.AnyIPv4),
		},
		WorkerIngress: []record.Rule{
			record.AllTrafficFromGroup(controllerID, networkID),
			record.TCPPortFromGroup(record.PortNFS, storageID, networkID),
		},
		StorageIngress: []record.Rule{
			record.TCPPortFromGroup(record.PortNFS, controllerID, networkID),
			record.TCPPortFromGroup(record.PortNFS, workerID, networkID),
		},
		StorageEgress: []record.Rule{
			record.TCPPortFromGroup(record.PortNFS, controllerID, networkID),
			record.TCPPortFromGroup(record.PortNFS, workerID, networkID),
		},
	}
}
