package viz

import (
	"errors"
	"fmt"
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/tecsim/internal/analysis"
	"github.com/san-kum/tecsim/internal/tec"
)

var ErrUnknownColumn = errors.New("viz: unknown column")

// Column selects one quantity of a sweep for plotting.
type Column struct {
	Name  string
	Label string
	Unit  string
	Value func(analysis.Point) float64
}

var columns = map[string]Column{
	"current":    {"current", "output current density", "A/cm2", func(p analysis.Point) float64 { return p.OutputCurrent }},
	"power":      {"power", "output power density", "W/cm2", func(p analysis.Point) float64 { return p.OutputPower }},
	"efficiency": {"efficiency", "total efficiency", "", func(p analysis.Point) float64 { return p.TotalEfficiency }},
	"heat":       {"heat", "heat supply", "W/cm2", func(p analysis.Point) float64 { return p.HeatSupply }},
	"motive":     {"motive", "motive maximum", "eV", func(p analysis.Point) float64 { return p.MaxMotive }},
}

func ColumnByName(name string) (Column, error) {
	c, ok := columns[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, name, ColumnNames())
	}
	return c, nil
}

func ColumnNames() []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MotivePlot draws the motive across the gap.
func MotivePlot(p *tec.Profile, width, height int) (string, error) {
	_, motive, err := p.Sample(width)
	if err != nil {
		return "", err
	}
	caption := fmt.Sprintf("motive (eV), %s, emitter to collector over %g um", p.Regime, p.CollectorPosition-p.EmitterPosition)
	return asciigraph.Plot(motive,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.Caption(caption),
	), nil
}

// SweepPlot draws one column of a sweep against the swept parameter.
func SweepPlot(points []analysis.Point, c Column, width, height int) string {
	if len(points) < 2 {
		return ""
	}
	_, ys := analysis.Series(points, c.Value)
	caption := fmt.Sprintf("%s vs %g..%g", c.Label, points[0].Param, points[len(points)-1].Param)
	if c.Unit != "" {
		caption = fmt.Sprintf("%s (%s) vs %g..%g", c.Label, c.Unit, points[0].Param, points[len(points)-1].Param)
	}
	return asciigraph.Plot(ys,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
