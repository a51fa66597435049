package compute

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/record"
)

// ErrNoPriceSource is returned when no on-demand catalog was supplied.
var ErrNoPriceSource = errors.New("no on-demand price source configured")

// BidPhase computes the spot bids before any capacity is requested.
type BidPhase struct{}

// NewBidPhase creates a new bid phase.
func NewBidPhase() *BidPhase {
	return &BidPhase{}
}

// Name implements the provisioning.Phase interface.
func (p *BidPhase) Name() string {
	return PhaseBid
}

// Provision implements the provisioning.Phase interface.
func (p *BidPhase) Provision(ctx *provisioning.Context) error {
	rec := ctx.Record
	if rec.Bid != nil {
		ctx.Observer.Printf("[%s] Reusing recorded %s bid, ceiling %s", PhaseBid, rec.Bid.Policy, rec.Bid.Ceiling)
		return nil
	}
	if ctx.Prices == nil {
		return fmt.Errorf("%s: %w", PhaseBid, ErrNoPriceSource)
	}

	params, err := ctx.Config.BidParams()
	if err != nil {
		return err
	}

	advisor := pricing.NewAdvisor(ctx.Prices, ctx.Cloud, pricing.WithClock(ctx.Clock))
	res, err := advisor.Compute(ctx, params, ctx.Config.Fleet.Weights(), ctx.Config.Region)
	if err != nil {
		return fmt.Errorf("failed to compute bids: %w", err)
	}

	for _, t := range res.Skipped {
		ctx.Observer.Event(provisioning.Event{
			Type:     provisioning.EventValidationWarning,
			Phase:    PhaseBid,
			Resource: t,
			Message:  fmt.Sprintf("no on-demand price for %s in %s; type skipped", t, ctx.Config.Region),
		})
	}

	rec.Bid = &record.BidRecord{
		Policy:  string(res.Policy),
		Ceiling: pricing.FormatPrice(res.Ceiling),
		PerType: lo.MapValues(res.PerType, func(v float64, _ string) string { return pricing.FormatPrice(v) }),
	}
	if err := ctx.Checkpoint(); err != nil {
		return err
	}

	ctx.Observer.Event(provisioning.Event{
		Type:    provisioning.EventResourceCreated,
		Phase:   PhaseBid,
		Message: fmt.Sprintf("%s bid ceiling %s per unit", res.Policy, rec.Bid.Ceiling),
		Fields:  map[string]string{"type": "bid", "types": fmt.Sprint(res.EligibleTypes())},
	})
	return nil
}
