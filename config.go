package rollblock

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines one smoothing run.
type Config struct {
	// Input is the location of the two-column series. A local path or an
	// s3://bucket/key URI. A ".gz" or ".sz" suffix selects decompression.
	Input string `yaml:"input"`

	// Output is the location the smoothed series is written to. It is
	// created or overwritten.
	Output string `yaml:"output"`

	// XLabel and YLabel title the chart axes.
	XLabel string `yaml:"xLabel"`
	YLabel string `yaml:"yLabel"`

	// Block is the rolling window size in samples. Must be at least 1.
	// A block not smaller than the series length yields an empty average.
	Block int `yaml:"block"`

	// Name prefixes the chart title. Defaults to Input.
	Name string `yaml:"name,omitempty"`

	// Chart configures the rendered chart.
	Chart ChartConfig `yaml:"chart"`

	// S3 configures access to s3:// locations.
	S3 S3Config `yaml:"s3"`

	// Metrics configures run metrics export.
	Metrics MetricsConfig `yaml:"metrics"`

	// Log configures the CLI logger.
	Log LogConfig `yaml:"log"`
}

// ChartConfig groups chart rendering settings.
type ChartConfig struct {
	// Enabled renders the chart. Default: true.
	Enabled bool `yaml:"enabled"`

	// Path is the chart location. Default: Output with the format's
	// extension appended.
	Path string `yaml:"path,omitempty"`

	// Format is "png" or "svg". Default: png.
	Format string `yaml:"format"`

	// Width and Height are the image size in inches.
	// Default: 8 x 5.
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// S3Config configures the S3 storage backend. The bucket comes from the
// s3:// location itself.
type S3Config struct {
	Bucket   string `yaml:"-"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"` // For S3-compatible services (MinIO, etc.)
	// AccessKeyID and SecretAccessKey are static credentials. Prefer the
	// default credential chain; DO NOT commit credentials to source control.
	AccessKeyID     string `yaml:"accessKeyID,omitempty"`
	SecretAccessKey string `yaml:"secretAccessKey,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	UsePathStyle    bool   `yaml:"usePathStyle,omitempty"`

	// MaxRetries is the SDK retry budget per request. Default: 3.
	MaxRetries int `yaml:"maxRetries,omitempty"`
}

// MetricsConfig groups run metrics settings.
type MetricsConfig struct {
	// TextfilePath, when set, receives the run metrics in the Prometheus
	// text exposition format (node_exporter textfile collector).
	TextfilePath string `yaml:"textfilePath,omitempty"`
}

// LogConfig groups logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error. Default: info.
	Level string `yaml:"level"`

	// Format is "text" or "json". Default: text.
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with defaults for everything but
// the run's locations, labels and block size.
func DefaultConfig() Config {
	return Config{
		Chart: ChartConfig{
			Enabled: true,
			Format:  "png",
			Width:   8,
			Height:  5,
		},
		S3: S3Config{
			Region:     "us-east-1",
			MaxRetries: 3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ParseConfig decodes a YAML configuration on top of DefaultConfig.
// Unknown keys are rejected. The result is not validated, so that command
// line arguments can fill in the remaining fields first.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: invalid YAML: %v", ErrConfig, err)
	}
	return cfg, nil
}

// LoadConfigFile parses the YAML configuration file at path.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, newStorageError(StorageErrorTypeRead, "cannot read config", path, err)
	}
	return ParseConfig(data)
}

// ChartName returns the name the chart title starts with.
func (c Config) ChartName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Input
}

// ChartPath returns the chart location, defaulting to the output location
// with the format's extension appended.
func (c Config) ChartPath() string {
	if c.Chart.Path != "" {
		return c.Chart.Path
	}
	return c.Output + "." + c.Chart.Format
}

// Validate checks the configuration for a runnable state.
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: input location is required", ErrConfig)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output location is required", ErrConfig)
	}
	if sameLocation(c.Input, c.Output) {
		return fmt.Errorf("%w: output %q would overwrite the input", ErrConfig, c.Output)
	}
	if c.Block < 1 {
		return fmt.Errorf("%w: block must be at least 1, got %d", ErrConfig, c.Block)
	}
	if c.Chart.Enabled {
		switch c.Chart.Format {
		case "png", "svg":
		default:
			return fmt.Errorf("%w: chart.format %q is not supported (valid: png, svg)", ErrConfig, c.Chart.Format)
		}
		if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
			return fmt.Errorf("%w: chart size must be positive, got %gx%g", ErrConfig, c.Chart.Width, c.Chart.Height)
		}
		if p := c.ChartPath(); sameLocation(p, c.Input) || sameLocation(p, c.Output) {
			return fmt.Errorf("%w: chart path %q collides with a series location", ErrConfig, p)
		}
	}
	if c.S3.MaxRetries < 0 {
		return fmt.Errorf("%w: s3.maxRetries must not be negative", ErrConfig)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q is not supported (valid: text, json)", ErrConfig, c.Log.Format)
	}
	return nil
}

// sameLocation reports whether two locations address the same object. Local
// paths are compared in absolute, cleaned form.
func sameLocation(a, b string) bool {
	if a == b {
		return true
	}
	if strings.HasPrefix(a, "s3://") || strings.HasPrefix(b, "s3://") {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
