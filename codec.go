package rollblock

import (
	"bytes"
	"compress/gzip"
	"io"
	"path"
	"strings"

	"github.com/golang/snappy"
)

// Compression identifies the body encoding of a stored series.
type Compression int

const (
	// CompressionNone stores plain delimited text.
	CompressionNone Compression = iota
	// CompressionGzip stores gzip-compressed text (".gz").
	CompressionGzip
	// CompressionSnappy stores snappy framed text (".sz").
	CompressionSnappy
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionSnappy:
		return "snappy"
	default:
		return "none"
	}
}

// CompressionForKey picks the body encoding from the key's extension.
func CompressionForKey(key string) Compression {
	switch strings.ToLower(path.Ext(key)) {
	case ".gz":
		return CompressionGzip
	case ".sz":
		return CompressionSnappy
	default:
		return CompressionNone
	}
}

func encodeBody(key string, data []byte) ([]byte, error) {
	c := CompressionForKey(key)
	if c == CompressionNone {
		return data, nil
	}

	var buf bytes.Buffer
	var w io.WriteCloser
	switch c {
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionSnappy:
		w = snappy.NewBufferedWriter(&buf)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, newStorageError(StorageErrorTypeCodec, c.String()+" encode failed", key, err)
	}
	if err := w.Close(); err != nil {
		return nil, newStorageError(StorageErrorTypeCodec, c.String()+" encode failed", key, err)
	}
	return buf.Bytes(), nil
}

func decodeBody(key string, data []byte) ([]byte, error) {
	c := CompressionForKey(key)
	var r io.Reader
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		if len(data) == 0 {
			return data, nil
		}
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, newStorageError(StorageErrorTypeCodec, "gzip decode failed", key, err)
		}
		defer gz.Close()
		r = gz
	case CompressionSnappy:
		r = snappy.NewReader(bytes.NewReader(data))
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, newStorageError(StorageErrorTypeCodec, c.String()+" decode failed", key, err)
	}
	return out, nil
}
