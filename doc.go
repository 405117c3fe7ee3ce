// Package rollblock smooths a two-column time series with a rolling block
// average.
//
// A run reads x,y rows from a delimited text file, averages y over a fixed
// window that advances one sample at a time, renders the raw and smoothed
// curves on one chart, and writes x, y and the average back out as
// delimited text.
//
// # Basic Usage
//
//	err := rollblock.DisplayAndWrite(ctx, "speed.csv", "time (s)", "speed (m/s)", "speed_smooth.csv", 10)
//
// For more control build a [Config] and run a [Pipeline]:
//
//	cfg, err := rollblock.NewConfigBuilder("speed.csv", "speed_smooth.csv.gz").
//	    WithBlock(10).
//	    WithLabels("time (s)", "speed (m/s)").
//	    WithChart("speed.svg", "svg").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p, err := rollblock.NewPipeline(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := p.Run(ctx)
//
// The building blocks are usable on their own: [ReadSeries], [RollingBlock],
// [PlotAverage] and [WriteSeries].
//
// # Locations
//
// Inputs, outputs and charts are addressed by location. A plain path is a
// local file; s3://bucket/key uses S3 or an S3-compatible service. Keys
// ending in .gz are gzip compressed and keys ending in .sz use snappy
// framing.
//
// # Averaging
//
// For a block of b samples and a series y of length n the average has n-b
// entries, average[k] being the mean of y[k] through y[k+b-1]. A block not
// smaller than n yields an empty average; the output then holds only x,y
// rows.
package rollblock
