package pricing

import "strconv"

// FormatPrice renders a price the way the provider expects it: a plain
// decimal with at most six fractional digits.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(Round6(v), 'f', -1, 64)
}
