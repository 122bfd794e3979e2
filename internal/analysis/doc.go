// Package analysis runs parameter studies on converter devices.
//
//   - [Sweep]: parallel sweep of output voltage, gap or an electrode
//     parameter, one [perf.Snapshot] per point
//   - [Peak]: maximum power point of a sweep
//   - [RegimeBoundaries]: saturation and critical points of a Langmuir device
//
// # J-V curves
//
//	points, err := analysis.Sweep(ctx, d, analysis.SweepConfig{Start: -1, Stop: 3, Points: 81})
//	if err != nil {
//	    return err
//	}
//	best, _ := analysis.Peak(points)
package analysis
