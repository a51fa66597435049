package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/imamik/spotcluster/internal/pricing"
	"github.com/imamik/spotcluster/internal/provisioning/compute"
	"github.com/imamik/spotcluster/internal/provisioning/destroy"
	"github.com/imamik/spotcluster/internal/record"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	greenStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	redStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	cellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// renderRows lays out rows as aligned columns. The first row is the header.
func renderRows(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := cellStyle.Width(widths[i] + 2)
			if i > 0 {
				style = style.Align(lipgloss.Right)
			}
			if r == 0 {
				style = style.Bold(true).Foreground(colorBlue)
			}
			cells[i] = style.Render(cell)
		}
		b.WriteString("    ")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
		if r == 0 {
			b.WriteString(dimStyle.Render("    " + strings.Repeat("─", lo.Sum(widths)+2*len(widths))))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderHeading(title string) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  " + title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  " + strings.Repeat("═", 30)))
	b.WriteString("\n")
	return b.String()
}

// renderBid produces the bid advice table.
func renderBid(region string, weights map[string]float64, r *pricing.BidResult) string {
	var b strings.Builder
	b.WriteString(renderHeading("spotcluster bid: " + region))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(fmt.Sprintf("  Policy %s", r.Policy)))
	b.WriteString("\n")

	rows := [][]string{{"Type", "Weight", "On-demand/unit", "Bid/unit"}}
	for _, t := range r.EligibleTypes() {
		rows = append(rows, []string{
			t,
			fmt.Sprintf("%g", weights[t]),
			pricing.FormatPrice(r.OnDemandPerUnit[t]),
			pricing.FormatPrice(r.PerType[t]),
		})
	}
	b.WriteString(renderRows(rows))

	b.WriteString("\n")
	b.WriteString("    Fleet ceiling: ")
	b.WriteString(greenStyle.Render(pricing.FormatPrice(r.Ceiling)))
	b.WriteString("\n")

	if len(r.Skipped) > 0 {
		b.WriteString(redStyle.Render("    No on-demand price: " + strings.Join(r.Skipped, ", ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Prices in USD per capacity unit per hour."))
	b.WriteString("\n")
	return b.String()
}

// renderPrices produces the on-demand price table.
func renderPrices(region string, prices map[string]float64, cached bool) string {
	var b strings.Builder
	b.WriteString(renderHeading("spotcluster prices: " + region))
	b.WriteString("\n")

	types := lo.Keys(prices)
	sort.Strings(types)

	rows := [][]string{{"Type", "On-demand/hour"}}
	for _, t := range types {
		rows = append(rows, []string{t, pricing.FormatPrice(prices[t])})
	}
	b.WriteString(renderRows(rows))

	source := "downloaded"
	if cached {
		source = "from snapshot"
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  Linux, shared tenancy, USD (%s).", source)))
	b.WriteString("\n")
	return b.String()
}

// renderCreated summarizes a finished create.
func renderCreated(rec *record.ClusterRecord, location string) string {
	var b strings.Builder
	b.WriteString(renderHeading("spotcluster created: " + rec.Name))
	b.WriteString("\n")

	rows := [][]string{
		{"Resource", "ID"},
		{"network", rec.NetworkID},
		{"subnets", fmt.Sprintf("%d zones", len(rec.Subnets))},
		{"controller", rec.ControllerInstanceID},
		{"fleet", rec.FleetRequestID},
	}
	if rec.Storage != nil {
		rows = append(rows, []string{"volume", rec.Storage.ID})
	}
	b.WriteString(renderRows(rows))

	if rec.Bid != nil {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("    Bid ceiling: %s (%s)\n", greenStyle.Render(rec.Bid.Ceiling), rec.Bid.Policy))
	}
	if rec.ControllerPublicIP != "" {
		b.WriteString(fmt.Sprintf("    Connect:     ssh -i %s %s@%s\n", rec.PrivateKeyPath, compute.LoginUser, rec.ControllerPublicIP))
	}
	b.WriteString(dimStyle.Render("    Record:      " + location))
	b.WriteString("\n")
	return b.String()
}

// renderReport summarizes a teardown.
func renderReport(name string, report *destroy.Report) string {
	var b strings.Builder
	b.WriteString(renderHeading("spotcluster destroy: " + name))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("    Removed: %s\n", greenStyle.Render(fmt.Sprint(len(report.Removed)))))
	b.WriteString(fmt.Sprintf("    Missing: %s\n", dimStyle.Render(fmt.Sprint(len(report.Missing)))))

	if len(report.Failures) > 0 {
		b.WriteString(fmt.Sprintf("    Failed:  %s\n", redStyle.Render(fmt.Sprint(len(report.Failures)))))
		b.WriteString("\n")
		for _, f := range report.Failures {
			b.WriteString(redStyle.Render("    ✗ " + f.Error()))
			b.WriteString("\n")
		}
	}
	return b.String()
}
