// Package viz renders converter state in the terminal.
//
//   - [MotivePlot], [SweepPlot]: asciigraph charts of a motive profile and
//     of a sweep column
//   - [Explorer]: interactive voltage and model explorer built on Bubble Tea
//   - Theme selection with 3 built-in color schemes
//
// # Key Bindings
//
//	h/l - Lower/raise the output voltage
//	j/k - Shrink/grow the voltage step
//	m   - Cycle models
//	p/e - Jump to maximum power/efficiency
//	t   - Cycle color themes
//	?   - Show help overlay
package viz
