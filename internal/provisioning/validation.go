package provisioning

import (
	"fmt"
	"strings"
)

// ValidationError represents a pre-flight error or warning.
type ValidationError struct {
	Field    string // Configuration or record field that failed validation
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == "error"
}

// ValidationPhase checks that the configuration and an existing record agree
// before anything is created.
type ValidationPhase struct{}

// NewValidationPhase creates a new validation phase.
func NewValidationPhase() *ValidationPhase {
	return &ValidationPhase{}
}

// Name implements the Phase interface.
func (vp *ValidationPhase) Name() string {
	return "validation"
}

// Provision implements the Phase interface.
func (vp *ValidationPhase) Provision(ctx *Context) error {
	var errs []string
	for _, ve := range validate(ctx) {
		if ve.IsError() {
			errs = append(errs, ve.Error())
			continue
		}
		ctx.Observer.Event(Event{
			Type:    EventValidationWarning,
			Phase:   vp.Name(),
			Message: ve.Message,
			Fields:  map[string]string{"field": ve.Field},
		})
	}

	if len(errs) > 0 {
		return fmt.Errorf("pre-flight validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// validate runs all checks and returns any errors or warnings.
func validate(ctx *Context) []ValidationError {
	var errs []ValidationError
	cfg, rec := ctx.Config, ctx.Record

	if err := cfg.Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "config", Message: err.Error(), Severity: "error"})
	}

	if rec.Name != cfg.ClusterName {
		errs = append(errs, ValidationError{
			Field:    "record.name",
			Message:  fmt.Sprintf("record belongs to cluster %q, not %q", rec.Name, cfg.ClusterName),
			Severity: "error",
		})
	}
	if rec.Region != cfg.Region {
		errs = append(errs, ValidationError{
			Field:    "record.region",
			Message:  fmt.Sprintf("record was created in %s, configuration targets %s", rec.Region, cfg.Region),
			Severity: "error",
		})
	}
	if rec.NetworkPrefix != "" && rec.NetworkPrefix != cfg.NetworkPrefix {
		errs = append(errs, ValidationError{
			Field:    "network_prefix",
			Message:  fmt.Sprintf("existing network uses %s; %s is ignored", rec.NetworkPrefix, cfg.NetworkPrefix),
			Severity: "warning",
		})
	}
	if rec.ControllerZone != "" && cfg.Controller.Zone != "" && rec.ControllerZone != cfg.Controller.Zone {
		errs = append(errs, ValidationError{
			Field:    "controller.zone",
			Message:  fmt.Sprintf("controller already placed in %s; %s is ignored", rec.ControllerZone, cfg.Controller.Zone),
			Severity: "warning",
		})
	}

	if !cfg.Storage.KeepOnTeardown {
		errs = append(errs, ValidationError{
			Field:    "storage.keep_on_teardown",
			Message:  "the data volume will be deleted when the cluster is torn down",
			Severity: "warning",
		})
	}
	if rec.FleetRequestID != "" {
		errs = append(errs, ValidationError{
			Field:    "record.fleetRequestId",
			Message:  fmt.Sprintf("cluster already has fleet request %s; nothing left to create", rec.FleetRequestID),
			Severity: "warning",
		})
	}

	return errs
}
