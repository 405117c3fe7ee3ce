// Command rollblock smooths a two-column series with a rolling block
// average, charts it and writes the smoothed series.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/chronicle-db/rollblock"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := pflag.NewFlagSet("rollblock", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	AddFlags(fs)

	cfg, err := ParseFlags(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return rollblock.ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "rollblock: %v\n", err)
		if errors.Is(err, rollblock.ErrIO) {
			return rollblock.ExitIO
		}
		// Unknown flags and malformed flag values are usage errors.
		return rollblock.ExitConfig
	}

	logger, err := rollblock.NewLogger(stderr, cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "rollblock: %v\n", err)
		return rollblock.ExitCode(err)
	}
	slog.SetDefault(logger)

	p, err := rollblock.NewPipeline(cfg, rollblock.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "rollblock: %v\n", err)
		return rollblock.ExitCode(err)
	}
	if _, err := p.Run(ctx); err != nil {
		return rollblock.ExitCode(err)
	}
	return rollblock.ExitOK
}
