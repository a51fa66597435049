package pricing

import (
	"fmt"
	"strings"
	"time"
)

// Policy selects how bids are derived.
type Policy string

const (
	// PolicyAutomatic bids the on-demand price per capacity unit.
	PolicyAutomatic Policy = "automatic"
	// PolicyCostMinimizing bids an inflated percentile of recent spot prices.
	PolicyCostMinimizing Policy = "cost-minimizing"
)

// legacyCostMinimizing is the old name still accepted on input.
const legacyCostMinimizing = "cheap"

// ParsePolicy parses a policy name. Matching is case-insensitive.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PolicyAutomatic):
		return PolicyAutomatic, nil
	case string(PolicyCostMinimizing), "cost_minimizing", legacyCostMinimizing:
		return PolicyCostMinimizing, nil
	default:
		return "", fmt.Errorf("%w: unknown policy %q", ErrInvalidParams, s)
	}
}

// Default advisor parameters.
const (
	DefaultInflation          = 1.5
	DefaultPercentile         = 75.0
	DefaultWindow             = 48 * time.Hour
	DefaultProductDescription = "Linux/UNIX"
)

// Params tunes the advisor.
type Params struct {
	Policy Policy
	// Inflation multiplies the percentile under cost-minimizing.
	Inflation float64
	// Percentile of normalized spot prices, in [0, 100].
	Percentile float64
	// Window is how far back spot history is read.
	Window time.Duration
	// ProductDescription filters spot history, e.g. "Linux/UNIX".
	ProductDescription string
}

// DefaultParams returns the parameters for a policy with default knobs.
func DefaultParams(policy Policy) Params {
	return Params{
		Policy:             policy,
		Inflation:          DefaultInflation,
		Percentile:         DefaultPercentile,
		Window:             DefaultWindow,
		ProductDescription: DefaultProductDescription,
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.Policy != PolicyAutomatic && p.Policy != PolicyCostMinimizing {
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidParams, p.Policy)
	}

	if p.Percentile < 0 || p.Percentile > 100 {
		return fmt.Errorf("%w: percentile %v outside [0, 100]", ErrInvalidParams, p.Percentile)
	}
	if p.Inflation <= 0 {
		return fmt.Errorf("%w: inflation %v must be positive", ErrInvalidParams, p.Inflation)
	}
	if p.Window <= 0 {
		return fmt.Errorf("%w: history window %v must be positive", ErrInvalidParams, p.Window)
	}
	return nil
}
