package pricing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Formatter formats bid results for display.
type Formatter struct{}

// NewFormatter creates a new formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format returns a boxed bid report for plain terminals and logs.
func (f *Formatter) Format(region string, weights map[string]float64, r *BidResult) string {
	var sb strings.Builder

	width := 61

	sb.WriteString(boxTop(width))
	sb.WriteString(boxLine("Spot bid advice", width))
	sb.WriteString(boxLine(fmt.Sprintf("Region: %s   Policy: %s", region, r.Policy), width))
	sb.WriteString(boxSep(width))

	sb.WriteString(boxLine(fmt.Sprintf("%-14s %6s %14s %14s", "Type", "Weight", "On-demand/u", "Bid/u"), width))
	sb.WriteString(boxDash(width))
	for _, t := range r.EligibleTypes() {
		line := fmt.Sprintf("%-14s %6g %14s %14s", t, weights[t], FormatPrice(r.OnDemandPerUnit[t]), FormatPrice(r.PerType[t]))
		sb.WriteString(boxLine(line, width))
	}
	sb.WriteString(boxDash(width))
	sb.WriteString(boxLine(fmt.Sprintf("%-36s %14s", "Fleet ceiling", FormatPrice(r.Ceiling)), width))

	if len(r.Skipped) > 0 {
		sb.WriteString(boxEmpty(width))
		sb.WriteString(boxLine("No on-demand price: "+strings.Join(r.Skipped, ", "), width))
	}
	sb.WriteString(boxBottom(width))

	sb.WriteString("\n  Prices in USD per capacity unit per hour\n")
	return sb.String()
}

// FormatCompact returns a single-line summary.
func (f *Formatter) FormatCompact(r *BidResult) string {
	return fmt.Sprintf("%s bid: ceiling %s over %d types (%d skipped)",
		r.Policy, FormatPrice(r.Ceiling), len(r.PerType), len(r.Skipped))
}

// FormatJSON returns the result as JSON with provider-formatted prices.
func (f *Formatter) FormatJSON(r *BidResult) string {
	type jsonResult struct {
		Policy   string            `json:"policy"`
		Ceiling  string            `json:"ceiling"`
		PerType  map[string]string `json:"per_type"`
		OnDemand map[string]string `json:"on_demand_per_unit"`
		Skipped  []string          `json:"skipped,omitempty"`
	}

	jr := jsonResult{
		Policy:   string(r.Policy),
		Ceiling:  FormatPrice(r.Ceiling),
		PerType:  make(map[string]string, len(r.PerType)),
		OnDemand: make(map[string]string, len(r.OnDemandPerUnit)),
		Skipped:  r.Skipped,
	}
	for t, v := range r.PerType {
		jr.PerType[t] = FormatPrice(v)
	}
	for t, v := range r.OnDemandPerUnit {
		jr.OnDemand[t] = FormatPrice(v)
	}

	data, _ := json.MarshalIndent(jr, "", "  ")
	return string(data)
}

// Helper functions for box drawing

func boxTop(width int) string {
	return fmt.Sprintf("┌%s┐\n", strings.Repeat("─", width-2))
}

func boxBottom(width int) string {
	return fmt.Sprintf("└%s┘\n", strings.Repeat("─", width-2))
}

func boxSep(width int) string {
	return fmt.Sprintf("├%s┤\n", strings.Repeat("─", width-2))
}

func boxDash(width int) string {
	return fmt.Sprintf("│ %s │\n", strings.Repeat("─", width-4))
}

func boxLine(text string, width int) string {
	padding := width - 4 - len(text)
	if padding < 0 {
		padding = 0
		text = text[:width-4]
	}
	return fmt.Sprintf("│ %s%s │\n", text, strings.Repeat(" ", padding))
}

func boxEmpty(width int) string {
	return fmt.Sprintf("│%s│\n", strings.Repeat(" ", width-2))
}
