package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/tecsim/internal/perf"
	"github.com/san-kum/tecsim/internal/tec"
)

var ErrUnknownParam = errors.New("analysis: unknown sweep parameter")

// Point is one sweep sample.
type Point struct {
	Param float64 `json:"param"`
	perf.Snapshot
}

type SweepConfig struct {
	// Param names the swept quantity; empty means the output voltage.
	Param   string  `yaml:"param"`
	Start   float64 `yaml:"start"`
	Stop    float64 `yaml:"stop"`
	Points  int     `yaml:"points"`
	Workers int     `yaml:"workers"`
}

func DefaultSweepConfig() SweepConfig {
	return SweepConfig{Param: "voltage", Start: 0, Stop: 3, Points: 61}
}

type setter func(d *tec.Device, v float64) (*tec.Device, error)

func electrodeSetter(collector bool, with func(tec.Electrode, float64) (tec.Electrode, error)) setter {
	return func(d *tec.Device, v float64) (*tec.Device, error) {
		if collector {
			e, err := with(d.Collector(), v)
			if err != nil {
				return nil, err
			}
			return d.WithCollector(e)
		}
		e, err := with(d.Emitter(), v)
		if err != nil {
			return nil, err
		}
		return d.WithEmitter(e)
	}
}

var params = map[string]setter{
	"voltage": func(d *tec.Device, v float64) (*tec.Device, error) { return d.WithOutputVoltage(v) },
	"gap": func(d *tec.Device, v float64) (*tec.Device, error) {
		c, err := d.Collector().WithPosition(d.Emitter().Position() + v)
		if err != nil {
			return nil, err
		}
		return d.WithCollector(c)
	},
	"emitter.temperature":   electrodeSetter(false, tec.Electrode.WithTemperature),
	"emitter.barrier":       electrodeSetter(false, tec.Electrode.WithBarrier),
	"collector.temperature": electrodeSetter(true, tec.Electrode.WithTemperature),
	"collector.barrier":     electrodeSetter(true, tec.Electrode.WithBarrier),
}

func Params() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sweep evaluates every metric of d across cfg.Points evenly spaced
// values of the swept parameter. Points are returned in parameter order.
func Sweep(ctx context.Context, d *tec.Device, cfg SweepConfig) ([]Point, error) {
	name := cfg.Param
	if name == "" {
		name = "voltage"
	}
	set, ok := params[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if cfg.Points < 2 {
		cfg.Points = 2
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	values := floats.Span(make([]float64, cfg.Points), cfg.Start, cfg.Stop)
	out := make([]Point, len(values))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, v := range values {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dv, err := set(d, v)
			if err != nil {
				return fmt.Errorf("%s = %g: %w", name, v, err)
			}
			s, err := perf.Evaluate(dv)
			if err != nil {
				return fmt.Errorf("%s = %g: %w", name, v, err)
			}
			out[i] = Point{Param: v, Snapshot: s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Peak returns the point of highest output power.
func Peak(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	best := 0
	for i, p := range points {
		if p.OutputPower > points[best].OutputPower {
			best = i
		}
	}
	return points[best], true
}

// Series extracts one column of a sweep for plotting.
func Series(points []Point, f func(Point) float64) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Param
		ys[i] = f(p)
	}
	return xs, ys
}
