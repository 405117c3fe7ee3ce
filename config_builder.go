package rollblock

// ConfigBuilder provides a fluent API for constructing a [Config].
// It starts from [DefaultConfig] defaults, so only fields that differ
// from the defaults need to be set.
//
//	cfg, err := rollblock.NewConfigBuilder("in.csv", "out.csv").
//	    WithBlock(10).
//	    WithLabels("time (s)", "speed (m/s)").
//	    WithoutChart().
//	    Build()
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder creates a builder pre-populated with [DefaultConfig] values.
func NewConfigBuilder(input, output string) *ConfigBuilder {
	cfg := DefaultConfig()
	cfg.Input = input
	cfg.Output = output
	return &ConfigBuilder{cfg: cfg}
}

// WithBlock sets the rolling window size in samples.
func (b *ConfigBuilder) WithBlock(block int) *ConfigBuilder {
	b.cfg.Block = block
	return b
}

// WithLabels sets the chart axis labels.
func (b *ConfigBuilder) WithLabels(xLabel, yLabel string) *ConfigBuilder {
	b.cfg.XLabel = xLabel
	b.cfg.YLabel = yLabel
	return b
}

// WithName sets the chart title prefix.
func (b *ConfigBuilder) WithName(name string) *ConfigBuilder {
	b.cfg.Name = name
	return b
}

// Chart settings

// WithChart enables the chart and writes it to path in the given format.
func (b *ConfigBuilder) WithChart(path, format string) *ConfigBuilder {
	b.cfg.Chart.Enabled = true
	b.cfg.Chart.Path = path
	if format != "" {
		b.cfg.Chart.Format = format
	}
	return b
}

// WithChartSize sets the chart size in inches.
func (b *ConfigBuilder) WithChartSize(width, height float64) *ConfigBuilder {
	b.cfg.Chart.Width = width
	b.cfg.Chart.Height = height
	return b
}

// WithoutChart disables chart rendering.
func (b *ConfigBuilder) WithoutChart() *ConfigBuilder {
	b.cfg.Chart.Enabled = false
	return b
}

// WithS3 sets the S3 backend settings used for s3:// locations.
func (b *ConfigBuilder) WithS3(cfg S3Config) *ConfigBuilder {
	b.cfg.S3 = cfg
	return b
}

// WithMetricsFile writes run metrics to path after each run.
func (b *ConfigBuilder) WithMetricsFile(path string) *ConfigBuilder {
	b.cfg.Metrics.TextfilePath = path
	return b
}

// WithLog sets the log level and format.
func (b *ConfigBuilder) WithLog(level, format string) *ConfigBuilder {
	b.cfg.Log.Level = level
	b.cfg.Log.Format = format
	return b
}

// Build validates and returns the configuration.
func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.cfg.Validate(); err != nil {
		return Config{}, err
	}
	return b.cfg, nil
}

// MustBuild is like [ConfigBuilder.Build] but panics on validation errors.
func (b *ConfigBuilder) MustBuild() Config {
	cfg, err := b.Build()
	if err != nil {
		panic("rollblock: invalid config: " + err.Error())
	}
	return cfg
}
