package rollblock

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadSeries parses comma-separated rows into paired x and y series. The
// first field of each row is x and the second is y; any further fields are
// ignored. There is no header handling, so a header row fails to parse, and
// a blank line is an empty row that fails to parse too.
func ReadSeries(r io.Reader) (x, y []float64, err error) {
	return readSeries(r, "")
}

var errEmptyRow = errors.New("empty row")

func readSeries(r io.Reader, source string) (x, y []float64, err error) {
	counter := &lineCounter{r: r}
	reader := csv.NewReader(counter)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	x = []float64{}
	y = []float64{}
	next := 1 // line the next record must start on
	for {
		record, err := reader.Read()
		if err == io.EOF {
			if counter.lines() >= next {
				return nil, nil, &ParseError{Source: source, Line: next, Cause: errEmptyRow}
			}
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, nil, &ParseError{Source: source, Line: perr.Line, Field: perr.Column, Cause: perr.Err}
			}
			return nil, nil, newStorageError(StorageErrorTypeRead, "failed to read rows", source, err)
		}

		// The csv reader drops blank lines; a gap in line numbers is one.
		line, _ := reader.FieldPos(0)
		if line != next {
			return nil, nil, &ParseError{Source: source, Line: next, Cause: errEmptyRow}
		}
		last := record[len(record)-1]
		lastLine, _ := reader.FieldPos(len(record) - 1)
		next = lastLine + strings.Count(last, "\n") + 1

		if len(record) < 2 {
			return nil, nil, &ParseError{
				Source: source,
				Line:   line,
				Cause:  fmt.Errorf("expected at least 2 fields, got %d", len(record)),
			}
		}

		xv, err := parseField(record[0], source, line, 1)
		if err != nil {
			return nil, nil, err
		}
		yv, err := parseField(record[1], source, line, 2)
		if err != nil {
			return nil, nil, err
		}
		x = append(x, xv)
		y = append(y, yv)
	}
	return x, y, nil
}

// lineCounter counts the lines read through it, including a final line
// without a terminating newline.
type lineCounter struct {
	r        io.Reader
	newlines int
	partial  bool
}

func (c *lineCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.newlines += bytes.Count(p[:n], []byte{'\n'})
		c.partial = p[n-1] != '\n'
	}
	return n, err
}

func (c *lineCounter) lines() int {
	if c.partial {
		return c.newlines + 1
	}
	return c.newlines
}

func parseField(s, source string, line, field int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		var numErr *strconv.NumError
		cause := err
		if errors.As(err, &numErr) {
			cause = numErr.Err
		}
		return 0, &ParseError{Source: source, Line: line, Field: field, Value: s, Cause: cause}
	}
	return v, nil
}

// LoadSeries reads the object stored under key, decompresses it according
// to the key's extension and parses it with ReadSeries.
func LoadSeries(ctx context.Context, backend StorageBackend, key string) (x, y []float64, err error) {
	data, err := backend.Read(ctx, key)
	if err != nil {
		return nil, nil, newStorageError(StorageErrorTypeRead, "failed to read series", key, err)
	}

	body, err := decodeBody(key, data)
	if err != nil {
		return nil, nil, err
	}
	return readSeries(bytes.NewReader(body), key)
}
