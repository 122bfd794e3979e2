package optim

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// GridSearch scores evenly spaced points of an interval in parallel.
type GridSearch struct {
	values  []float64
	workers int
}

func NewGridSearch(lo, hi float64, points, workers int) *GridSearch {
	if points < 2 {
		points = 2
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &GridSearch{
		values:  floats.Span(make([]float64, points), lo, hi),
		workers: workers,
	}
}

func (g *GridSearch) Values() []float64 {
	return g.values
}

// Search evaluates every grid point and returns the index of the highest
// score. Scores of -Inf mark infeasible points; best is -1 when no point
// is feasible. The first evaluation error cancels the rest.
func (g *GridSearch) Search(ctx context.Context, eval func(ctx context.Context, v float64) (float64, error)) (best int, scores []float64, err error) {
	scores = make([]float64, len(g.values))
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.workers)
	for i, v := range g.values {
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := eval(gctx, v)
			if err != nil {
				return err
			}
			scores[i] = s
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return -1, nil, err
	}

	best = -1
	top := math.Inf(-1)
	for i, s := range scores {
		if s > top {
			best, top = i, s
		}
	}
	return best, scores, nil
}

// Bracket returns the grid neighbours around index i.
func (g *GridSearch) Bracket(i int) (lo, hi float64) {
	n := len(g.values)
	lo = g.values[max(i-1, 0)]
	hi = g.values[min(i+1, n-1)]
	return lo, hi
}
