package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/chronicle-db/rollblock"
)

const (
	ConfigKey      = "config"
	ChartKey       = "chart"
	ChartFormatKey = "chart-format"
	ChartWidthKey  = "chart-width"
	ChartHeightKey = "chart-height"
	NoChartKey     = "no-chart"
	NameKey        = "name"
	LogLevelKey    = "log-level"
	LogFormatKey   = "log-format"
	MetricsFileKey = "metrics-file"
	S3RegionKey    = "s3-region"
	S3EndpointKey  = "s3-endpoint"
	S3PathStyleKey = "s3-path-style"
)

const usage = `usage: rollblock [flags] <input> <x-label> <y-label> <output> <block>

Smooths the x,y series in <input> with a rolling block average of <block>
samples, renders the raw and smoothed curves, and writes x,y,average rows to
<output>. Locations may be local paths or s3://bucket/key URIs; a .gz or .sz
suffix selects gzip or snappy compression.

With --config, the positional arguments may be omitted when the file sets
input, output, labels and block.

flags:
`

func AddFlags(flags *pflag.FlagSet) {
	def := rollblock.DefaultConfig()
	flags.String(ConfigKey, "", "YAML configuration file")
	flags.String(ChartKey, "", "Chart location (default <output>.<chart-format>)")
	flags.String(ChartFormatKey, def.Chart.Format, "Chart image format: png or svg")
	flags.Float64(ChartWidthKey, def.Chart.Width, "Chart width in inches")
	flags.Float64(ChartHeightKey, def.Chart.Height, "Chart height in inches")
	flags.Bool(NoChartKey, false, "Skip chart rendering")
	flags.String(NameKey, "", "Chart title prefix (default <input>)")
	flags.String(LogLevelKey, def.Log.Level, "Log level: debug, info, warn or error")
	flags.String(LogFormatKey, def.Log.Format, "Log format: text or json")
	flags.String(MetricsFileKey, "", "Write run metrics to this file in Prometheus text format")
	flags.String(S3RegionKey, def.S3.Region, "Region for s3:// locations")
	flags.String(S3EndpointKey, "", "Endpoint for S3-compatible services")
	flags.Bool(S3PathStyleKey, false, "Use path-style S3 addressing")
}

// ParseFlags parses args into a configuration. Values from --config are
// overridden by flags that were set explicitly and by positional arguments.
func ParseFlags(flags *pflag.FlagSet, args []string) (rollblock.Config, error) {
	if err := flags.Parse(args); err != nil {
		return rollblock.Config{}, err
	}

	cfg := rollblock.DefaultConfig()
	if path, _ := flags.GetString(ConfigKey); path != "" {
		var err error
		if cfg, err = rollblock.LoadConfigFile(path); err != nil {
			return rollblock.Config{}, err
		}
	}

	switch pos := flags.Args(); len(pos) {
	case 0:
	case 5:
		block, err := strconv.Atoi(pos[4])
		if err != nil {
			return rollblock.Config{}, fmt.Errorf("%w: block %q is not an integer", rollblock.ErrConfig, pos[4])
		}
		cfg.Input = pos[0]
		cfg.XLabel = pos[1]
		cfg.YLabel = pos[2]
		cfg.Output = pos[3]
		cfg.Block = block
	default:
		return rollblock.Config{}, fmt.Errorf("%w: expected 5 arguments, got %d", rollblock.ErrConfig, len(pos))
	}

	if flags.Changed(ChartKey) {
		cfg.Chart.Path, _ = flags.GetString(ChartKey)
	}
	if flags.Changed(ChartFormatKey) {
		cfg.Chart.Format, _ = flags.GetString(ChartFormatKey)
	}
	if flags.Changed(ChartWidthKey) {
		cfg.Chart.Width, _ = flags.GetFloat64(ChartWidthKey)
	}
	if flags.Changed(ChartHeightKey) {
		cfg.Chart.Height, _ = flags.GetFloat64(ChartHeightKey)
	}
	if noChart, _ := flags.GetBool(NoChartKey); noChart {
		cfg.Chart.Enabled = false
	}
	if flags.Changed(NameKey) {
		cfg.Name, _ = flags.GetString(NameKey)
	}
	if flags.Changed(LogLevelKey) {
		cfg.Log.Level, _ = flags.GetString(LogLevelKey)
	}
	if flags.Changed(LogFormatKey) {
		cfg.Log.Format, _ = flags.GetString(LogFormatKey)
	}
	if flags.Changed(MetricsFileKey) {
		cfg.Metrics.TextfilePath, _ = flags.GetString(MetricsFileKey)
	}
	if flags.Changed(S3RegionKey) {
		cfg.S3.Region, _ = flags.GetString(S3RegionKey)
	}
	if flags.Changed(S3EndpointKey) {
		cfg.S3.Endpoint, _ = flags.GetString(S3EndpointKey)
	}
	if flags.Changed(S3PathStyleKey) {
		cfg.S3.UsePathStyle, _ = flags.GetBool(S3PathStyleKey)
	}

	return cfg, cfg.Validate()
}
