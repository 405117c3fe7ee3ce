package rollblock

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ImageChart renders charts to PNG or SVG images with gonum/plot and
// stores them at a fixed location.
type ImageChart struct {
	loc    Location
	format string
	width  vg.Length
	height vg.Length
}

// NewImageChart creates a chart renderer writing to loc. The format and
// size come from cfg; zero values fall back to DefaultConfig.
func NewImageChart(loc Location, cfg ChartConfig) *ImageChart {
	def := DefaultConfig().Chart
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	return &ImageChart{
		loc:    loc,
		format: cfg.Format,
		width:  vg.Length(cfg.Width) * vg.Inch,
		height: vg.Length(cfg.Height) * vg.Inch,
	}
}

// Location returns where the chart is stored.
func (c *ImageChart) Location() Location {
	return c.loc
}

// Render implements Chart.
func (c *ImageChart) Render(ctx context.Context, spec ChartSpec) error {
	img, err := c.draw(spec)
	if err != nil {
		return err
	}
	if err := c.loc.Backend.Write(ctx, c.loc.Key, img); err != nil {
		return newStorageError(StorageErrorTypeWrite, "failed to write chart", c.loc.Key, err)
	}
	return nil
}

func (c *ImageChart) draw(spec ChartSpec) ([]byte, error) {
	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.Add(plotter.NewGrid())

	for i, l := range []Line{spec.Raw, spec.Smooth} {
		if len(l.X) != len(l.Y) {
			return nil, fmt.Errorf("%w: line %q has %d x and %d y values", ErrRender, l.Name, len(l.X), len(l.Y))
		}
		// Non-finite samples leave a gap; each finite run is its own segment.
		for k, run := range finiteRuns(l.X, l.Y) {
			line, err := plotter.NewLine(run)
			if err != nil {
				return nil, fmt.Errorf("%w: line %q: %v", ErrRender, l.Name, err)
			}
			line.Color = plotutil.Color(i)
			line.Width = vg.Points(1)
			p.Add(line)
			if k == 0 {
				p.Legend.Add(l.Name, line)
			}
		}
	}
	p.Legend.Top = true

	w, err := p.WriterTo(c.width, c.height, c.format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrRender, c.format, err)
	}
	return buf.Bytes(), nil
}

// finiteRuns splits paired samples into maximal runs where both x and y are
// finite. Empty input, or input with no finite sample, yields no runs.
func finiteRuns(x, y []float64) []plotter.XYs {
	var runs []plotter.XYs
	var cur plotter.XYs
	for j := range x {
		if !isFinite(x[j]) || !isFinite(y[j]) {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: x[j], Y: y[j]})
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
