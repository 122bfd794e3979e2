package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/tecsim/internal/tec"
)

// Styles derived from CurrentTheme. They are functions so that theme
// switches take effect on the next render.
func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Primary)
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Width(14)
}

func valueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Text)
}

func hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Italic(true)
}

func keyStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
}

func panelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(CurrentTheme.Muted).
		Padding(0, 1)
}

func regimeStyle(regime string) lipgloss.Style {
	c := CurrentTheme.Text
	switch regime {
	case tec.Accelerating.String():
		c = CurrentTheme.Accelerating
	case tec.SpaceChargeLimited.String():
		c = CurrentTheme.SpaceCharge
	case tec.Retarding.String():
		c = CurrentTheme.Retarding
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}

// Title renders a heading line.
func Title(s string) string { return titleStyle().Render(s) }

// Hint renders muted help text.
func Hint(s string) string { return hintStyle().Render(s) }

// Regime renders a regime name in its theme color.
func Regime(regime string) string { return regimeStyle(regime).Render(regime) }

// KeyValue renders one "label value" row.
func KeyValue(label, value string) string {
	return labelStyle().Render(label) + valueStyle().Render(value)
}

// Keys renders "key action" pairs for a help footer.
func Keys(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(keyStyle().Render(pairs[i]) + hintStyle().Render(" "+pairs[i+1]))
	}
	return b.String()
}

// Bar renders a fraction in [0, 1] as a fixed-width bar.
func Bar(fraction float64, width int) string {
	if math.IsNaN(fraction) {
		return hintStyle().Render(strings.Repeat("·", width))
	}
	filled := int(math.Round(fraction * float64(width)))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(bar)
}

// FormatSI formats v with three significant digits and a unit.
func FormatSI(v float64, unit string) string {
	switch {
	case math.IsNaN(v):
		return "undefined"
	case v != 0 && (math.Abs(v) < 1e-3 || math.Abs(v) >= 1e5):
		return fmt.Sprintf("%.3e %s", v, unit)
	}
	return fmt.Sprintf("%.4g %s", v, unit)
}

// Sparkline renders values as a row of block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 || math.IsInf(rng, 0) || math.IsNaN(rng) {
		rng = 1
	}

	start := max(len(values)-width, 0)
	var b strings.Builder
	for _, v := range values[start:] {
		if math.IsNaN(v) {
			b.WriteRune(' ')
			continue
		}
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return b.String()
}
