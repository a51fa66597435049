package provisioning

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/spotcluster/internal/config"
	"github.com/imamik/spotcluster/internal/platform/awscloud"
	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/record"
	"github.com/imamik/spotcluster/internal/templates"
	"github.com/imamik/spotcluster/internal/util/netutil"
	"github.com/imamik/spotcluster/internal/util/tags"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config    *config.Config
	Record    *record.ClusterRecord
	Store     record.Store
	Cloud     awscloud.Provider
	Prices    pricing.OnDemandSource
	Templates *templates.Renderer
	Observer  Observer
	Metrics   *Metrics
	Timeouts  *config.Timeouts
	Now       func() time.Time
	// Dial opens connections when waiting on controller ports. Nil uses a TCP dialer.
	Dial netutil.DialFunc
}

// NewContext creates a new provisioning context. The observer logs through
// the logr.Logger carried by ctx, if any.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	rec *record.ClusterRecord,
	store record.Store,
	cloud awscloud.Provider,
) *Context {
	return &Context{
		Context:   ctx,
		Config:    cfg,
		Record:    rec,
		Store:     store,
		Cloud:     cloud,
		Templates: templates.NewRenderer(cfg.Templates),
		Observer:  NewObserver(logr.FromContextOrDiscard(ctx)),
		Timeouts:  config.LoadTimeouts(),
		Now:       time.Now,
	}
}

// Checkpoint persists the record. Phases call it after every mutation.
func (c *Context) Checkpoint() error {
	c.Record.Touch(c.Clock())
	if c.Store == nil {
		return nil
	}
	if err := c.Store.Save(c, c.Record); err != nil {
		return fmt.Errorf("failed to checkpoint cluster record to %s: %w", c.Store.Location(), err)
	}
	return nil
}

// Clock returns the current time from Now, falling back to time.Now.
func (c *Context) Clock() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Tags returns the tags for a resource of the given kind. Configured extra
// tags never replace the Name tag.
func (c *Context) Tags(kind string) map[string]string {
	return tags.NewBuilder(c.Config.ClusterName).Merge(c.Config.Tags).WithKind(kind).Build()
}

// RoleTags is Tags plus a role tag.
func (c *Context) RoleTags(kind, role string) map[string]string {
	return tags.NewBuilder(c.Config.ClusterName).Merge(c.Config.Tags).WithKind(kind).WithRole(role).Build()
}
