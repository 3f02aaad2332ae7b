package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/cashflow-forecast/internal/forecast"
	"github.com/iwvelando/cashflow-forecast/internal/health"
	"github.com/iwvelando/cashflow-forecast/internal/model"
	"github.com/iwvelando/cashflow-forecast/internal/snapshot"
	"github.com/iwvelando/cashflow-forecast/internal/store"
	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/format"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorYellow    = lipgloss.Color("#D0A215")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// statusColors maps each health tier to its badge color.
var statusColors = map[health.Status]lipgloss.Color{
	health.StatusGood:    ColorGreen,
	health.StatusCaution: ColorYellow,
	health.StatusWarning: ColorOrange,
	health.StatusDanger:  ColorRed,
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderHealth renders the status badge followed by its explanation.
func RenderHealth(report health.Report) string {
	badge := lipgloss.NewStyle().
		Bold(true).
		Foreground(statusColors[report.Status]).
		Render(strings.ToUpper(string(report.Status)))
	return fmt.Sprintf("  %s  %s\n", badge, valueStyle.Render(report.Message))
}

// RenderDangerRanges lists the consecutive danger stretches of a projection,
// one per line.
func RenderDangerRanges(projection model.CashflowProjection, ranges []forecast.DangerRange) string {
	if len(ranges) == 0 {
		return mutedStyle.Render("  No danger days in either scenario") + "\n"
	}
	var b strings.Builder
	b.WriteString("  " + headerStyle.Render("Danger ranges") + "\n")
	for _, r := range ranges {
		span := projection.Days[r.StartIndex].Date.Format(constants.DateLayout)
		if r.EndIndex != r.StartIndex {
			span += " .. " + projection.Days[r.EndIndex].Date.Format(constants.DateLayout)
		}
		fmt.Fprintf(&b, "  %s %s\n", warnStyle.Render(span), dimStyle.Render("("+string(r.Scenario)+")"))
	}
	return b.String()
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTable renders a bordered table with headers and rows. Every column
// after the first is right-aligned.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, numCols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return dimStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}
	line := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			b.WriteString(dimStyle.Render("│"))
		}
		return b.String() + "\n"
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(line(t.Headers, headerStyle))
		b.WriteString(rule("├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		b.WriteString(line(row, valueStyle))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

// SnapshotTable lists stored snapshots, newest first.
func SnapshotTable(entries []store.Entry) Table {
	t := Table{Title: "Snapshots", Headers: []string{"ID", "Name", "Group", "Created"}}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{e.ID, e.Name, e.GroupID, e.CreatedAt.Format("2006-01-02 15:04")})
	}
	return t
}

// MetricsTable shows a snapshot's frozen summary metrics.
func MetricsTable(snap model.ProjectionSnapshot) Table {
	m := snap.Data.SummaryMetrics
	return Table{
		Title:   snap.Name,
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Created", snap.CreatedAt.Format("2006-01-02 15:04")},
			{"Starting balance", format.Currency(m.StartingBalance)},
			{"Best case end balance", format.Currency(m.OptimisticEndBalance)},
			{"Worst case danger days", fmt.Sprintf("%d", m.DangerDayCount)},
		},
	}
}

// ComparisonTable shows how one snapshot's metrics moved against another's.
func ComparisonTable(c snapshot.Comparison) Table {
	return Table{
		Title:   fmt.Sprintf("%s -> %s", c.From, c.To),
		Headers: []string{"Metric", "Change"},
		Rows: [][]string{
			{"Elapsed", c.Elapsed.Round(time.Second).String()},
			{"Starting balance", signedCurrency(c.StartingBalanceDelta)},
			{"Best case end balance", signedCurrency(c.OptimisticEndBalanceDelta)},
			{"Worst case danger days", fmt.Sprintf("%+d", c.DangerDayCountDelta)},
		},
	}
}

func signedCurrency(cents int64) string {
	if cents > 0 {
		return "+" + format.Currency(cents)
	}
	return format.Currency(cents)
}
