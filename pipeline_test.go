package rollblock

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chronicle-db/rollblock/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipeline_Memory(t *testing.T) {
	ctx := context.Background()
	in := NewMemoryBackend()
	out := NewMemoryBackend()
	in.Write(ctx, "speed.csv", []byte("0,1\n1,2\n2,3\n3,4\n4,5\n"))

	cfg := NewConfigBuilder("speed.csv", "smoothed.csv").
		WithBlock(2).
		WithLabels("t", "v").
		MustBuild()

	var rendered ChartSpec
	chart := ChartFunc(func(_ context.Context, spec ChartSpec) error {
		rendered = spec
		return nil
	})

	p, err := NewPipeline(cfg,
		WithInputBackend(in),
		WithOutputBackend(out),
		WithChart(chart),
		WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.RowsRead != 5 || res.Windows != 3 || res.RowsWritten != 5 || res.OutputKey != "smoothed.csv" {
		t.Errorf("res = %+v", res)
	}

	data, err := out.Read(ctx, "smoothed.csv")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	want := "0,1,1.5\n1,2,2.5\n2,3,3.5\n3,4\n4,5\n"
	if string(data) != want {
		t.Errorf("output = %q, want %q", data, want)
	}
	if res.BytesWritten != len(want) {
		t.Errorf("BytesWritten = %d, want %d", res.BytesWritten, len(want))
	}

	if rendered.Title != "speed.csv using a rolling block of 2 samples" {
		t.Errorf("Title = %q", rendered.Title)
	}
	if rendered.XLabel != "t" || rendered.YLabel != "v" {
		t.Errorf("labels = %q, %q", rendered.XLabel, rendered.YLabel)
	}
	if len(rendered.Smooth.X) != 3 || rendered.Smooth.X[2] != 2 {
		t.Errorf("smooth x = %v", rendered.Smooth.X)
	}

	// The input is left alone.
	if got, _ := in.Read(ctx, "speed.csv"); string(got) != "0,1\n1,2\n2,3\n3,4\n4,5\n" {
		t.Errorf("input changed: %q", got)
	}
}

func TestPipeline_ImageChartOnOutputBackend(t *testing.T) {
	ctx := context.Background()
	in := NewMemoryBackend()
	out := NewMemoryBackend()
	in.Write(ctx, "in.csv", []byte("0,1\n1,2\n2,3\n3,4\n"))

	cfg := NewConfigBuilder("in.csv", "out.csv.gz").
		WithBlock(2).
		WithChart("", "svg").
		MustBuild()

	p, err := NewPipeline(cfg, WithInputBackend(in), WithOutputBackend(out), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ChartKey != "out.csv.gz.svg" {
		t.Errorf("ChartKey = %q", res.ChartKey)
	}

	keys := out.Keys()
	if len(keys) != 2 || keys[0] != "out.csv.gz" || keys[1] != "out.csv.gz.svg" {
		t.Fatalf("keys = %v", keys)
	}

	// The output body is compressed and reads back through LoadSeries.
	x, y, err := LoadSeries(ctx, out, "out.csv.gz")
	if err != nil {
		t.Fatalf("LoadSeries failed: %v", err)
	}
	if len(x) != 4 || y[3] != 4 {
		t.Errorf("x = %v, y = %v", x, y)
	}
}

func TestPipeline_MalformedInputWritesNothing(t *testing.T) {
	ctx := context.Background()
	in := NewMemoryBackend()
	out := NewMemoryBackend()
	in.Write(ctx, "in.csv", []byte("0,1\n1,abc\n2,3\n"))

	var logs bytes.Buffer
	cfg := NewConfigBuilder("in.csv", "out.csv").WithBlock(1).MustBuild()
	p, err := NewPipeline(cfg,
		WithInputBackend(in),
		WithOutputBackend(out),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	_, err = p.Run(ctx)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Line != 2 || perr.Field != 2 {
		t.Errorf("expected line 2 field 2, got %v", err)
	}
	if ExitCode(err) != ExitParse {
		t.Errorf("ExitCode = %d", ExitCode(err))
	}
	if keys := out.Keys(); len(keys) != 0 {
		t.Errorf("expected no output, got %v", keys)
	}
	if !strings.Contains(logs.String(), "run failed") {
		t.Errorf("expected failure to be logged, got %q", logs.String())
	}
}

func TestPipeline_EmptyInput(t *testing.T) {
	ctx := context.Background()
	in := NewMemoryBackend()
	out := NewMemoryBackend()
	in.Write(ctx, "in.csv", nil)

	cfg := NewConfigBuilder("in.csv", "out.csv").WithBlock(3).WithoutChart().MustBuild()
	p, err := NewPipeline(cfg, WithInputBackend(in), WithOutputBackend(out), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.RowsRead != 0 || res.Windows != 0 || res.ChartKey != "" {
		t.Errorf("res = %+v", res)
	}
	data, err := out.Read(ctx, "out.csv")
	if err != nil {
		t.Fatalf("expected an empty output object: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("output = %q", data)
	}
}

func TestPipeline_BlockNotSmallerThanSeries(t *testing.T) {
	ctx := context.Background()
	in := NewMemoryBackend()
	out := NewMemoryBackend()
	in.Write(ctx, "in.csv", []byte("0,1\n1,2\n2,3\n"))

	var logs bytes.Buffer
	cfg := NewConfigBuilder("in.csv", "out.csv").WithBlock(3).MustBuild()
	p, err := NewPipeline(cfg,
		WithInputBackend(in),
		WithOutputBackend(out),
		WithChart(NopChart{}),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	if _, err := p.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	data, _ := out.Read(ctx, "out.csv")
	if string(data) != "0,1\n1,2\n2,3\n" {
		t.Errorf("output = %q", data)
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestPipeline_ChartFailureWritesNoOutput(t *testing.T) {
	ctx := context.Background()
	in := NewMemoryBackend()
	out := NewMemoryBackend()
	in.Write(ctx, "in.csv", []byte("0,1\n1,2\n2,3\n"))

	cfg := NewConfigBuilder("in.csv", "out.csv").WithBlock(1).MustBuild()
	boom := errors.New("display unavailable")
	p, err := NewPipeline(cfg,
		WithInputBackend(in),
		WithOutputBackend(out),
		WithChart(ChartFunc(func(context.Context, ChartSpec) error { return boom })),
		WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	if _, err := p.Run(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected chart error, got %v", err)
	}
	if keys := out.Keys(); len(keys) != 0 {
		t.Errorf("expected no output, got %v", keys)
	}
}

func TestNewPipeline_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input = "in.csv"
	cfg.Output = "out.csv"
	if _, err := NewPipeline(cfg); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for block 0, got %v", err)
	}
}

func TestPipeline_Metrics(t *testing.T) {
	ctx := context.Background()
	in := NewMemoryBackend()
	in.Write(ctx, "in.csv", []byte("0,1\n1,2\n2,3\n3,4\n"))

	dir := t.TempDir()
	promFile := filepath.Join(dir, "rollblock.prom")
	cfg := NewConfigBuilder("in.csv", "out.csv").
		WithBlock(2).
		WithoutChart().
		WithMetricsFile(promFile).
		MustBuild()

	m, err := NewMetrics(MetricsNamespace)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	p, err := NewPipeline(cfg,
		WithInputBackend(in),
		WithOutputBackend(NewMemoryBackend()),
		WithMetrics(m),
		WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if _, err := p.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := gathered(t, m, "rollblock_windows_computed_total"); got != 2 {
		t.Errorf("windows = %v, want 2", got)
	}
	data, err := os.ReadFile(promFile)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), "rollblock_rows_read_total 4") {
		t.Errorf("unexpected metrics file:\n%s", data)
	}

	// A failing run is counted by kind.
	in.Write(ctx, "in.csv", []byte("x,y\n"))
	if _, err := p.Run(ctx); err == nil {
		t.Fatal("expected parse failure")
	}
	if got := gathered(t, m, "rollblock_run_failures_total", "kind", "parse"); got != 1 {
		t.Errorf("parse failures = %v, want 1", got)
	}
}

func TestDisplayAndWrite(t *testing.T) {
	dir, input, output := testutil.TempPaths(t)
	testutil.WriteFile(t, input, "0,1\n1,2\n2,3\n3,4\n4,5\n")

	slog.SetDefault(quietLogger())
	if err := DisplayAndWrite(context.Background(), input, "time", "speed", output, 2); err != nil {
		t.Fatalf("DisplayAndWrite failed: %v", err)
	}

	rows := testutil.ReadRows(t, output)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	for i, row := range rows {
		want := 3
		if i >= 3 {
			want = 2
		}
		if len(row) != want {
			t.Errorf("row %d has %d fields, want %d", i, len(row), want)
		}
	}

	chart, err := os.ReadFile(filepath.Join(dir, "out.csv.png"))
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	if !bytes.HasPrefix(chart, []byte("\x89PNG")) {
		t.Error("chart is not a PNG image")
	}
}

func TestDisplayAndWrite_Errors(t *testing.T) {
	_, input, output := testutil.TempPaths(t)
	slog.SetDefault(quietLogger())

	err := DisplayAndWrite(context.Background(), input, "x", "y", output, 2)
	if !errors.Is(err, ErrIO) || ExitCode(err) != ExitIO {
		t.Errorf("missing input: got %v", err)
	}
	testutil.MustNotExist(t, output)

	testutil.WriteFile(t, input, "0,1\n")
	err = DisplayAndWrite(context.Background(), input, "x", "y", output, 0)
	if ExitCode(err) != ExitConfig {
		t.Errorf("block 0: got %v", err)
	}
	testutil.MustNotExist(t, output)
}

func TestPipeline_NonFiniteSamples(t *testing.T) {
	ctx := context.Background()
	in := NewMemoryBackend()
	out := NewMemoryBackend()
	in.Write(ctx, "in.csv", []byte("0,1\n1,NaN\n2,3\n3,4\n"))

	cfg := NewConfigBuilder("in.csv", "out.csv").WithBlock(2).MustBuild()
	p, err := NewPipeline(cfg, WithInputBackend(in), WithOutputBackend(out), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ChartKey != "out.csv.png" {
		t.Errorf("ChartKey = %q", res.ChartKey)
	}
	data, err := out.Read(ctx, "out.csv")
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if want := "0,1,NaN\n1,NaN,NaN\n2,3\n3,4\n"; string(data) != want {
		t.Errorf("output = %q, want %q", data, want)
	}
}

type existsFailingBackend struct {
	*MemoryBackend
	calls int
}

func (b *existsFailingBackend) Exists(context.Context, string) (bool, error) {
	b.calls++
	return false, errors.New("head request denied")
}

func TestPipeline_OutputCheckOnlyWhenDebugging(t *testing.T) {
	ctx := context.Background()
	in := NewMemoryBackend()
	in.Write(ctx, "in.csv", []byte("0,1\n1,2\n"))
	cfg := NewConfigBuilder("in.csv", "out.csv").WithBlock(1).WithoutChart().MustBuild()

	out := &existsFailingBackend{MemoryBackend: NewMemoryBackend()}
	p, err := NewPipeline(cfg, WithInputBackend(in), WithOutputBackend(out), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if _, err := p.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.calls != 0 {
		t.Errorf("Exists called %d times at info level", out.calls)
	}

	var logs bytes.Buffer
	debug := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p, err = NewPipeline(cfg, WithInputBackend(in), WithOutputBackend(out), WithLogger(debug))
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if _, err := p.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.calls != 1 {
		t.Errorf("Exists called %d times at debug level, want 1", out.calls)
	}
	if !strings.Contains(logs.String(), "head request denied") {
		t.Errorf("check error not logged: %q", logs.String())
	}
}

func TestDisplayAndWrite_OutputAliasesInput(t *testing.T) {
	dir, input, _ := testutil.TempPaths(t)
	testutil.WriteFile(t, input, "0,1\n1,2\n2,3\n")
	slog.SetDefault(quietLogger())

	alias := dir + "/./sub/../in.csv"
	err := DisplayAndWrite(context.Background(), input, "x", "y", alias, 1)
	if ExitCode(err) != ExitConfig {
		t.Fatalf("expected a config error, got %v", err)
	}
	if data, _ := os.ReadFile(input); string(data) != "0,1\n1,2\n2,3\n" {
		t.Errorf("input changed: %q", data)
	}
}

func TestDisplayAndWrite_MissingOutputDirectory(t *testing.T) {
	dir, input, _ := testutil.TempPaths(t)
	testutil.WriteFile(t, input, "0,1\n1,2\n2,3\n")
	slog.SetDefault(quietLogger())

	output := filepath.Join(dir, "no", "such", "out.csv")
	err := DisplayAndWrite(context.Background(), input, "x", "y", output, 1)
	if !errors.Is(err, ErrIO) || ExitCode(err) != ExitIO {
		t.Fatalf("expected an I/O error, got %v", err)
	}
	testutil.MustNotExist(t, filepath.Join(dir, "no"))
}
