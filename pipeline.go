package rollblock

import (
	"context"
	"log/slog"
	"time"
)

// RunResult summarizes a completed run.
type RunResult struct {
	RowsRead     int
	Windows      int
	RowsWritten  int
	BytesWritten int
	OutputKey    string
	ChartKey     string
	Duration     time.Duration
}

// Pipeline reads a series, smooths it, renders the chart and writes the
// smoothed series, in that order.
type Pipeline struct {
	config  Config
	chart   Chart
	logger  *slog.Logger
	metrics *Metrics

	inputBackend  StorageBackend
	outputBackend StorageBackend
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithChart replaces the configured chart renderer.
func WithChart(c Chart) PipelineOption {
	return func(p *Pipeline) { p.chart = c }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records every run in m.
func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithInputBackend reads Config.Input as a key of b instead of resolving
// it as a location.
func WithInputBackend(b StorageBackend) PipelineOption {
	return func(p *Pipeline) { p.inputBackend = b }
}

// WithOutputBackend writes Config.Output, and the chart, as keys of b
// instead of resolving them as locations.
func WithOutputBackend(b StorageBackend) PipelineOption {
	return func(p *Pipeline) { p.outputBackend = b }
}

// NewPipeline validates cfg and creates a pipeline.
func NewPipeline(cfg Config, opts ...PipelineOption) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{config: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.metrics == nil && cfg.Metrics.TextfilePath != "" {
		m, err := NewMetrics(MetricsNamespace)
		if err != nil {
			return nil, err
		}
		p.metrics = m
	}
	return p, nil
}

// Run executes the pipeline once. Nothing is written if the input cannot
// be read or parsed.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	res, err := p.run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		p.logger.Error("run failed", "input", p.config.Input, "err", err)
		if p.metrics != nil {
			p.metrics.fail(err, elapsed)
			p.flushMetrics()
		}
		return nil, err
	}

	res.Duration = elapsed
	p.logger.Info("run complete",
		"input", p.config.Input,
		"output", p.config.Output,
		"rows", res.RowsRead,
		"windows", res.Windows,
		"bytes", res.BytesWritten,
		"duration", elapsed)
	if p.metrics != nil {
		p.metrics.observe(res, p.config.Block)
		p.flushMetrics()
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context) (*RunResult, error) {
	cfg := p.config

	in, closeIn, err := p.locate(ctx, p.inputBackend, cfg.Input)
	if err != nil {
		return nil, err
	}
	defer closeIn()

	x, y, err := LoadSeries(ctx, in.Backend, in.Key)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("series loaded", "input", cfg.Input, "rows", len(y))

	if cfg.Block >= len(y) {
		p.logger.Warn("block is not smaller than the series, average is empty",
			"block", cfg.Block, "rows", len(y))
	}
	average := RollingBlock(cfg.Block, y)

	res := &RunResult{
		RowsRead: len(y),
		Windows:  len(average),
	}

	chart, chartKey, closeChart, err := p.chartFor(ctx)
	if err != nil {
		return nil, err
	}
	defer closeChart()

	if _, err := PlotAverage(ctx, chart, cfg.ChartName(), x, cfg.XLabel, y, cfg.YLabel, average, cfg.Block); err != nil {
		return nil, err
	}
	if chartKey != "" {
		res.ChartKey = chartKey
		p.logger.Info("chart written", "chart", chartKey)
	}

	out, closeOut, err := p.locate(ctx, p.outputBackend, cfg.Output)
	if err != nil {
		return nil, err
	}
	defer closeOut()

	if p.logger.Enabled(ctx, slog.LevelDebug) {
		exists, err := out.Backend.Exists(ctx, out.Key)
		switch {
		case err != nil:
			p.logger.Debug("output check failed", "output", cfg.Output, "err", err)
		case exists:
			p.logger.Debug("overwriting output", "output", cfg.Output)
		}
	}
	n, err := SaveSeries(ctx, out.Backend, out.Key, x, y, average)
	if err != nil {
		return nil, err
	}
	res.RowsWritten = len(x)
	res.BytesWritten = n
	res.OutputKey = out.Key
	return res, nil
}

// chartFor returns the chart renderer for this run and, for image charts,
// the key the image is stored under.
func (p *Pipeline) chartFor(ctx context.Context) (Chart, string, func(), error) {
	if p.chart != nil {
		return p.chart, "", func() {}, nil
	}
	if !p.config.Chart.Enabled {
		return NopChart{}, "", func() {}, nil
	}

	loc, closeFn, err := p.locate(ctx, p.outputBackend, p.config.ChartPath())
	if err != nil {
		return nil, "", nil, err
	}
	return NewImageChart(loc, p.config.Chart), loc.Key, closeFn, nil
}

// locate resolves uri, or uses it as a key of override when one is set.
// Backends opened here are closed by the returned func.
func (p *Pipeline) locate(ctx context.Context, override StorageBackend, uri string) (Location, func(), error) {
	if override != nil {
		return Location{Backend: override, Key: uri, URI: uri}, func() {}, nil
	}
	loc, err := ResolveLocation(ctx, uri, p.config.S3)
	if err != nil {
		return Location{}, nil, err
	}
	return loc, func() { _ = loc.Backend.Close() }, nil
}

func (p *Pipeline) flushMetrics() {
	path := p.config.Metrics.TextfilePath
	if path == "" {
		return
	}
	if err := p.metrics.WriteTextfile(path); err != nil {
		p.logger.Warn("metrics not written", "path", path, "err", err)
	}
}

// DisplayAndWrite reads the series at input, smooths it with a rolling
// block of the given size, renders the chart next to output and writes
// the smoothed series to output.
func DisplayAndWrite(ctx context.Context, input, xLabel, yLabel, output string, block int) error {
	cfg, err := NewConfigBuilder(input, output).
		WithBlock(block).
		WithLabels(xLabel, yLabel).
		Build()
	if err != nil {
		return err
	}
	p, err := NewPipeline(cfg)
	if err != nil {
		return err
	}
	_, err = p.Run(ctx)
	return err
}
