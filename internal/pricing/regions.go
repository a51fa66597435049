package pricing

import (
	"fmt"
	"sort"
)

// regionLocations maps region codes to the location names used in the
// public price list.
var regionLocations = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"ca-central-1":   "Canada (Central)",
	"ca-west-1":      "Canada West (Calgary)",
	"sa-east-1":      "South America (Sao Paulo)",
	"eu-west-1":      "EU (Ireland)",
	"eu-west-2":      "EU (London)",
	"eu-west-3":      "EU (Paris)",
	"eu-central-1":   "EU (Frankfurt)",
	"eu-central-2":   "EU (Zurich)",
	"eu-north-1":     "EU (Stockholm)",
	"eu-south-1":     "EU (Milan)",
	"eu-south-2":     "EU (Spain)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-northeast-3": "Asia Pacific (Osaka)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ap-southeast-3": "Asia Pacific (Jakarta)",
	"ap-southeast-4": "Asia Pacific (Melbourne)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"ap-south-2":     "Asia Pacific (Hyderabad)",
	"ap-east-1":      "Asia Pacific (Hong Kong)",
	"me-south-1":     "Middle East (Bahrain)",
	"me-central-1":   "Middle East (UAE)",
	"af-south-1":     "Africa (Cape Town)",
	"il-central-1":   "Israel (Tel Aviv)",
	"us-gov-west-1":  "AWS GovCloud (US-West)",
	"us-gov-east-1":  "AWS GovCloud (US-East)",
}

// LocationForRegion returns the price-list location name of a region.
func LocationForRegion(region string) (string, error) {
	loc, ok := regionLocations[region]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRegion, region)
	}
	return loc, nil
}

// KnownRegions lists every region with a location name, sorted.
func KnownRegions() []string {
	out := make([]string, 0, len(regionLocations))
	for r := range regionLocations {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
