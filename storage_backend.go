package rollblock

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// StorageBackend is where series, outputs and charts are read from and
// written to. Keys are relative to the backend's root.
type StorageBackend interface {
	// Read returns the object stored under key.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores data under key, replacing any existing object.
	Write(ctx context.Context, key string, data []byte) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases any resources.
	Close() error
}

var (
	_ StorageBackend = (*FileBackend)(nil)
	_ StorageBackend = (*S3Backend)(nil)
	_ StorageBackend = (*MemoryBackend)(nil)
)

// Location is a resolved input or output address: the backend that holds
// the object and its key within that backend.
type Location struct {
	Backend StorageBackend
	Key     string
	URI     string
}

// ResolveLocation maps a CLI-style address onto a backend. "s3://bucket/key"
// uses an S3 backend configured from cfg; anything else is a local path,
// served by a FileBackend rooted at the path's directory.
func ResolveLocation(ctx context.Context, uri string, cfg S3Config) (Location, error) {
	if uri == "" {
		return Location{}, fmt.Errorf("%w: empty location", ErrConfig)
	}

	if strings.HasPrefix(uri, "s3://") {
		u, err := url.Parse(uri)
		if err != nil {
			return Location{}, fmt.Errorf("%w: invalid location %q: %v", ErrConfig, uri, err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("%w: location %q needs a bucket and a key", ErrConfig, uri)
		}
		cfg.Bucket = u.Host
		backend, err := NewS3Backend(ctx, cfg)
		if err != nil {
			return Location{}, newStorageError(StorageErrorTypeUnknown, "failed to open S3 backend", uri, err)
		}
		return Location{Backend: backend, Key: key, URI: uri}, nil
	}

	abs, err := filepath.Abs(uri)
	if err != nil {
		return Location{}, fmt.Errorf("%w: invalid path %q: %v", ErrConfig, uri, err)
	}
	backend, err := NewFileBackend(filepath.Dir(abs))
	if err != nil {
		return Location{}, newStorageError(StorageErrorTypeUnknown, "failed to open directory", uri, err)
	}
	return Location{Backend: backend, Key: filepath.Base(abs), URI: uri}, nil
}
