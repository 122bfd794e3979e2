package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/tecsim/internal/analysis"
	"github.com/san-kum/tecsim/internal/tec"
)

var ErrFormat = errors.New("export: unsupported chart format")

const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var formats = map[string]bool{"png": true, "svg": true, "pdf": true, "eps": true, "jpg": true}

// Series is one named line.
type Series struct {
	Name string
	X, Y []float64
}

type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Series []Series
	// Marks are vertical reference lines, such as regime boundaries.
	Marks map[string]float64
}

// xys drops non-finite samples; undefined efficiencies leave gaps.
func xys(s Series) plotter.XYs {
	pts := make(plotter.XYs, 0, len(s.X))
	for i := range s.X {
		if i >= len(s.Y) {
			break
		}
		x, y := s.X[i], s.Y[i]
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}

// Plot builds the gonum plot.
func (c Chart) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Add(plotter.NewGrid())

	for i, s := range c.Series {
		pts := xys(s)
		if len(pts) < 2 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("export: series %q: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		if s.Name != "" {
			p.Legend.Add(s.Name, line)
		}
	}

	if len(c.Marks) > 0 {
		lo, hi := p.Y.Min, p.Y.Max
		names := make([]string, 0, len(c.Marks))
		for name := range c.Marks {
			names = append(names, name)
		}
		sort.Strings(names)
		i := len(c.Series)
		for _, name := range names {
			x := c.Marks[name]
			if math.IsNaN(x) || math.IsInf(x, 0) {
				continue
			}
			mark, err := plotter.NewLine(plotter.XYs{{X: x, Y: lo}, {X: x, Y: hi}})
			if err != nil {
				return nil, err
			}
			mark.Color = plotutil.Color(i)
			mark.Dashes = plotutil.Dashes(1)
			p.Add(mark)
			p.Legend.Add(name, mark)
			i++
		}
	}
	p.Legend.Top = true
	return p, nil
}

// Format returns the chart format implied by a file name.
func Format(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "jpeg" {
		ext = "jpg"
	}
	if !formats[ext] {
		return "", fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	return ext, nil
}

// Save writes the chart to path; the extension picks the format.
func (c Chart) Save(path string, width, height vg.Length) error {
	if _, err := Format(path); err != nil {
		return err
	}
	p, err := c.Plot()
	if err != nil {
		return err
	}
	return p.Save(width, height, path)
}

// Write encodes the chart in format to w.
func (c Chart) Write(w io.Writer, format string, width, height vg.Length) error {
	if !formats[format] {
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
	p, err := c.Plot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SweepChart plots one quantity of a sweep against the swept parameter.
func SweepChart(points []analysis.Point, param, label string, value func(analysis.Point) float64) Chart {
	xs, ys := analysis.Series(points, value)
	title := label
	if len(points) > 0 {
		title = fmt.Sprintf("%s, %s model", label, points[0].Model)
	}
	return Chart{
		Title:  title,
		XLabel: param,
		YLabel: label,
		Series: []Series{{Name: label, X: xs, Y: ys}},
	}
}

// MotiveChart overlays motive profiles, one line per name.
func MotiveChart(profiles map[string]*tec.Profile, names []string, samples int) (Chart, error) {
	c := Chart{Title: "motive", XLabel: "position (um)", YLabel: "motive (eV)"}
	for _, name := range names {
		p, ok := profiles[name]
		if !ok {
			continue
		}
		xs, ys, err := p.Sample(samples)
		if err != nil {
			return Chart{}, fmt.Errorf("export: %s: %w", name, err)
		}
		c.Series = append(c.Series, Series{Name: name, X: xs, Y: ys})
	}
	return c, nil
}
