package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"core-launchpad/internal/domain"
)

var (
	colorSuccess = lipgloss.Color("#00D26A")
	colorWarning = lipgloss.Color("#FFB800")
	colorError   = lipgloss.Color("#FF4444")
	colorAddress = lipgloss.Color("#00B4D8")
	colorMeta    = lipgloss.Color("#555555")
	colorHeader  = lipgloss.Color("#F15BB5")
	colorTitle   = lipgloss.Color("#9B5DE5")
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleAddress = lipgloss.NewStyle().Foreground(colorAddress)
	styleMeta    = lipgloss.NewStyle().Foreground(colorMeta)
	styleHeader  = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleTitle   = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
)

func success(msg string) string { return styleSuccess.Render("✓ " + msg) }
func warn(msg string) string    { return styleWarning.Render("⚠ " + msg) }
func title(msg string) string   { return styleTitle.Render(msg) }
func addr(a string) string      { return styleAddress.Render(a) }
func meta(m string) string      { return styleMeta.Render(m) }

// statusStyle colors a presale or position status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case string(domain.StatusLive), string(domain.PositionActive):
		return styleSuccess
	case string(domain.StatusComingSoon), string(domain.PositionReadyToFinalize), string(domain.StatusHardcapReached):
		return styleWarning
	case string(domain.PositionFailed):
		return styleError
	default:
		return styleMeta
	}
}

// shortAddr shortens an address for tables: 0x1234…5678.
func shortAddr(a string) string {
	if len(a) <= 10 {
		return a
	}
	return a[:6] + "…" + a[len(a)-4:]
}

type column struct {
	title string
	width int
}

// table renders fixed-width rows. Cells are padded before styling so ANSI
// sequences do not count toward the width.
type table struct {
	columns []column
	rows    [][]string
	styles  map[int]func(string) lipgloss.Style // per-column cell style
}

func newTable(cols ...column) *table {
	return &table{columns: cols, styles: make(map[int]func(string) lipgloss.Style)}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render() string {
	var sb strings.Builder

	headers := make([]string, len(t.columns))
	divider := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = styleHeader.Render(pad(col.title, col.width))
		divider[i] = styleMeta.Render(strings.Repeat("-", col.width))
	}
	sb.WriteString(strings.Join(headers, " ") + "\n")
	sb.WriteString(strings.Join(divider, " ") + "\n")

	for _, row := range t.rows {
		cells := make([]string, len(t.columns))
		for i, col := range t.columns {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			padded := pad(val, col.width)
			if style, ok := t.styles[i]; ok {
				padded = style(val).Render(padded)
			}
			cells[i] = padded
		}
		sb.WriteString(strings.Join(cells, " ") + "\n")
	}
	return sb.String()
}

// pad left-aligns s within width runes, truncating with an ellipsis.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		if width <= 1 {
			return string(r[:width])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}
