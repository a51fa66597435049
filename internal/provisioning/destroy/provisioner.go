package destroy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/record"
)

const phase = "teardown"

// Step outcomes reported to metrics.
const (
	OutcomeRemoved = "removed"
	OutcomeMissing = "missing"
	OutcomeFailed  = "failed"
)

// Failure is a teardown step that failed for a reason other than the
// resource being gone.
type Failure struct {
	Step     string
	Resource string
	Err      error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Step, f.Resource, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarizes a teardown.
type Report struct {
	// Removed and Missing hold "<step> <id>" entries.
	Removed  []string
	Missing  []string
	Failures []Failure
}

// OK reports whether every step either removed its resource or found it
// already gone.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Err joins the failures, or returns nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return fmt.Errorf("teardown left %d failures: %w", len(r.Failures), errors.Join(errs...))
}

// Provisioner dismantles the resources held by a cluster record.
type Provisioner struct{}

// NewProvisioner creates a new destroy provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface. It fails when the
// teardown report holds failures.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	return p.Teardown(ctx).Err()
}

// Teardown walks the record in reverse creation order. It never stops
// early; every step is attempted and its outcome reported. The record
// itself is left untouched.
func (p *Provisioner) Teardown(ctx *provisioning.Context) *Report {
	t := &teardown{ctx: ctx, report: &Report{}}
	rec := ctx.Record
	ctx.Observer.Printf("[%s] Dismantling cluster %s in %s", phase, rec.Name, rec.Region)

	if rec.FleetRequestID != "" {
		t.do("fleet", rec.FleetRequestID, func() error {
			return ctx.Cloud.CancelSpotFleet(ctx, rec.FleetRequestID, true)
		})
	}

	if rec.ControllerInstanceID != "" {
		t.terminateController(rec.ControllerInstanceID)
	}

	if vol := rec.Storage; vol != nil {
		if vol.KeepOnTeardown {
			ctx.Observer.Printf("[%s] Keeping data volume %s", phase, vol.ID)
		} else {
			t.do("volume", vol.ID, func() error { return ctx.Cloud.DeleteVolume(ctx, vol.ID) })
		}
	}

	// Cross references between groups block their deletion, so every rule
	// goes before any group.
	perimeters := rec.Perimeters.TeardownOrder()
	for _, sg := range perimeters {
		t.revoke(sg, sg.Ingress, false)
		t.revoke(sg, sg.Egress, true)
	}
	for _, sg := range perimeters {
		t.do("perimeter", sg.ID, func() error { return ctx.Cloud.DeleteSecurityGroup(ctx, sg.ID) })
	}

	for _, id := range t.subnets() {
		t.do("subnet", id, func() error { return ctx.Cloud.DeleteSubnet(ctx, id) })
	}

	if rec.RouteTableID != "" {
		t.do("route", rec.RouteTableID, func() error { return ctx.Cloud.DeleteDefaultRoute(ctx, rec.RouteTableID) })
	}

	if rec.GatewayID != "" {
		if rec.NetworkID != "" {
			t.do("gateway-attachment", rec.GatewayID, func() error {
				return ctx.Cloud.DetachInternetGateway(ctx, rec.GatewayID, rec.NetworkID)
			})
		}
		t.do("gateway", rec.GatewayID, func() error { return ctx.Cloud.DeleteInternetGateway(ctx, rec.GatewayID) })
	}

	// Deleting the gateway removes the main route table's routes but leaves
	// its tags behind.
	if rec.RouteTableID != "" {
		keys := tagKeys(ctx.Tags("route table"))
		t.do("route-table-tags", rec.RouteTableID, func() error {
			return ctx.Cloud.DeleteTags(ctx, []string{rec.RouteTableID}, keys)
		})
	}

	if rec.NetworkID != "" {
		t.do("vpc", rec.NetworkID, func() error { return ctx.Cloud.DeleteVPC(ctx, rec.NetworkID) })
	}

	r := t.report
	ctx.Observer.Printf("[%s] Removed %d, already gone %d, failed %d", phase, len(r.Removed), len(r.Missing), len(r.Failures))
	return r
}

type teardown struct {
	ctx    *provisioning.Context
	report *Report
}

// do runs one step and returns its outcome.
func (t *teardown) do(step, id string, fn func() error) string {
	obs := t.ctx.Observer
	provisioning.LogResourceDeleting(obs, phase, step, id)

	err := fn()
	entry := step + " " + id
	switch {
	case err == nil:
		t.report.Removed = append(t.report.Removed, entry)
		t.ctx.Metrics.ObserveTeardownStep(step, OutcomeRemoved)
		provisioning.LogResourceDeleted(obs, phase, step, id)
		return OutcomeRemoved
	case awscloud.IsNotFound(err):
		t.report.Missing = append(t.report.Missing, entry)
		t.ctx.Metrics.ObserveTeardownStep(step, OutcomeMissing)
		provisioning.LogResourceMissing(obs, phase, step, id)
		return OutcomeMissing
	default:
		t.report.Failures = append(t.report.Failures, Failure{Step: step, Resource: id, Err: err})
		t.ctx.Metrics.ObserveTeardownStep(step, OutcomeFailed)
		provisioning.LogResourceFailed(obs, phase, step, id, err)
		return OutcomeFailed
	}
}

func (t *teardown) terminateController(id string) {
	ctx := t.ctx
	if t.do("controller", id, func() error { return ctx.Cloud.TerminateInstance(ctx, id) }) != OutcomeRemoved {
		return
	}

	res := ctx.WaitForInstance(id, awscloud.StateTerminated, ctx.Timeouts.InstanceTerminate)
	if res.Outcome != provisioning.WaitReady {
		t.report.Failures = append(t.report.Failures, Failure{Step: "controller-wait", Resource: id, Err: res.Err})
		ctx.Metrics.ObserveTeardownStep("controller-wait", OutcomeFailed)
		provisioning.LogResourceFailed(ctx.Observer, phase, "controller-wait", id, res.Err)
	}
}

func (t *teardown) revoke(sg *record.SecurityPerimeterRecord, rules []record.Rule, egress bool) {
	if len(rules) == 0 {
		return
	}
	ctx := t.ctx
	if egress {
		t.do("egress-rules", sg.ID, func() error { return ctx.Cloud.RevokeEgress(ctx, sg.ID, rules) })
		return
	}
	t.do("ingress-rules", sg.ID, func() error { return ctx.Cloud.RevokeIngress(ctx, sg.ID, rules) })
}

// subnets returns every subnet found under the network plus the recorded
// ids. The recorded ids alone are used when the listing fails.
func (t *teardown) subnets() []string {
	ctx := t.ctx
	rec := ctx.Record
	recorded := rec.SubnetIDs()
	if rec.NetworkID == "" {
		return recorded
	}

	listed, err := ctx.Cloud.ListSubnets(ctx, rec.NetworkID)
	if err != nil {
		if !awscloud.IsNotFound(err) {
			ctx.Observer.Printf("[%s] Listing subnets of %s failed, using recorded ids: %v", phase, rec.NetworkID, err)
		}
		return recorded
	}
	ids := lo.Uniq(append(listed, recorded...))
	sort.Strings(ids)
	return ids
}

func tagKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
