package cli

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"costeapp/internal/core"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")
	colorMuted  = lipgloss.Color("#6F6E69")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
	totalStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	dimStyle    = lipgloss.NewStyle().Foreground(colorBorder)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// Table is a bordered text table. Columns listed in RightAlign are padded
// on the left.
type Table struct {
	Headers    []string
	Rows       [][]string
	Footer     []string
	RightAlign map[int]bool
}

// RenderTitle renders a heading inside a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable lays out t with box-drawing borders.
func RenderTable(t Table) string {
	widths := make([]int, len(t.Headers))
	measure := func(row []string) {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	measure(t.Footer)

	var b strings.Builder
	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < len(widths)-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(row []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", w-lipgloss.Width(cell))
			if t.RightAlign[i] {
				cell = pad + cell
			} else {
				cell += pad
			}
			b.WriteString(style.Render(" " + cell + " "))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	line(t.Headers, headerStyle)
	rule("├", "┼", "┤")
	for _, row := range t.Rows {
		line(row, valueStyle)
	}
	if t.Footer != nil {
		rule("├", "┼", "┤")
		line(t.Footer, totalStyle)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// RenderFixedCosts renders the table the web page shows, with its total.
func RenderFixedCosts(ov core.Overview, symbol string) string {
	if len(ov.FixedCosts) == 0 {
		return mutedStyle.Render("No hay costos fijos todavía.") + "\n"
	}
	rows := make([][]string, len(ov.FixedCosts))
	for i, fc := range ov.FixedCosts {
		rows[i] = []string{strconv.FormatInt(fc.ID, 10), fc.CostName, fc.MonthlyCost.Format(symbol)}
	}
	return RenderTable(Table{
		Headers:    []string{"ID", "Concepto", "Costo mensual"},
		Rows:       rows,
		Footer:     []string{"", "Total", ov.Total.Format(symbol)},
		RightAlign: map[int]bool{0: true, 2: true},
	})
}

// RenderFieldErrors lists validation messages, one per line.
func RenderFieldErrors(errs core.FieldErrors) string {
	var b strings.Builder
	for _, fe := range errs {
		b.WriteString(errorStyle.Render("✗ " + fe.Field + ": " + fe.Message))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderStatus renders an autosave badge or an operation error.
func RenderStatus(status, opError string) string {
	if opError != "" {
		return errorStyle.Render(opError)
	}
	return mutedStyle.Render(status)
}
