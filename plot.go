package rollblock

import (
	"context"
	"fmt"
)

// Line is one named curve on a chart.
type Line struct {
	Name string
	X    []float64
	Y    []float64
}

// ChartSpec describes a chart of a raw series and its rolling average.
type ChartSpec struct {
	Title  string
	XLabel string
	YLabel string
	Raw    Line
	Smooth Line
}

// Chart renders a ChartSpec. Implementations decide where the result goes.
type Chart interface {
	Render(ctx context.Context, spec ChartSpec) error
}

// NopChart discards every chart.
type NopChart struct{}

// Render implements Chart.
func (NopChart) Render(context.Context, ChartSpec) error { return nil }

// ChartFunc adapts a function to the Chart interface.
type ChartFunc func(ctx context.Context, spec ChartSpec) error

// Render implements Chart.
func (f ChartFunc) Render(ctx context.Context, spec ChartSpec) error { return f(ctx, spec) }

// PlotTitle composes the chart title for a named series.
func PlotTitle(name string, block int) string {
	return fmt.Sprintf("%s using a rolling block of %d samples", name, block)
}

// PlotAverage renders the raw (x, y) curve and the rolling average against
// x with its trailing block samples removed. It returns that trimmed x; the
// caller's slices are left untouched.
func PlotAverage(ctx context.Context, chart Chart, name string, x []float64, xLabel string, y []float64, yLabel string, average []float64, block int) ([]float64, error) {
	trimmed := TrimToAverage(x, block)
	if len(trimmed) > len(average) {
		trimmed = trimmed[:len(average)]
	}

	spec := ChartSpec{
		Title:  PlotTitle(name, block),
		XLabel: xLabel,
		YLabel: yLabel,
		Raw:    Line{Name: "raw", X: x, Y: y},
		Smooth: Line{Name: fmt.Sprintf("rolling mean (%d)", block), X: trimmed, Y: average},
	}
	if err := chart.Render(ctx, spec); err != nil {
		return trimmed, err
	}
	return trimmed, nil
}
