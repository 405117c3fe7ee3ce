package rollblock

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteSeries writes one comma-separated row per index of x and y. Rows
// carry the average as a third field while one exists for that index;
// the remaining rows have only two fields.
func WriteSeries(w io.Writer, x, y, average []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: len(x)=%d len(y)=%d", ErrLengthMismatch, len(x), len(y))
	}

	csvWriter := csv.NewWriter(w)
	row := make([]string, 0, 3)
	for i := range x {
		row = append(row[:0], formatValue(x[i]), formatValue(y[i]))
		if i < len(average) {
			row = append(row, formatValue(average[i]))
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// SaveSeries serializes the series with WriteSeries, compresses the body
// according to the key's extension and stores it under key, replacing any
// existing object. It returns the number of bytes stored.
func SaveSeries(ctx context.Context, backend StorageBackend, key string, x, y, average []float64) (int, error) {
	var buf bytes.Buffer
	if err := WriteSeries(&buf, x, y, average); err != nil {
		return 0, err
	}

	body, err := encodeBody(key, buf.Bytes())
	if err != nil {
		return 0, err
	}
	if err := backend.Write(ctx, key, body); err != nil {
		return 0, newStorageError(StorageErrorTypeWrite, "failed to write series", key, err)
	}
	return len(body), nil
}
