package pricing

import "errors"

var (
	// ErrPricingDataUnavailable means none of the requested instance types
	// has an on-demand price in the region.
	ErrPricingDataUnavailable = errors.New("no on-demand pricing data for any requested instance type")

	// ErrInsufficientHistory means an instance type has no spot price
	// observations in the history window.
	ErrInsufficientHistory = errors.New("insufficient spot price history")

	// ErrInvalidParams means the bid parameters are out of range.
	ErrInvalidParams = errors.New("invalid bid parameters")

	// ErrUnknownRegion means the region has no price-list location name.
	ErrUnknownRegion = errors.New("region has no price list location")
)
