// Package source reads instance documents and writes run results, from local
// files or S3 objects.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
)

// ErrUnsupportedLocation is returned for locations no backend can serve.
var ErrUnsupportedLocation = errors.New("unsupported location")

// Source reads and writes whole objects by location.
type Source interface {
	Read(ctx context.Context, location string) ([]byte, error)
	Write(ctx context.Context, location string, data []byte) error
}

// File serves local paths.
type File struct{}

// Read returns the file contents.
func (File) Read(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	return data, nil
}

// Write creates parent directories as needed and replaces the file.
func (File) Write(ctx context.Context, location string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(location); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(location, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return nil
}

// Router sends "s3://" locations to an S3 source created on first use and
// everything else to the local file system.
type Router struct {
	NewS3 func(ctx context.Context) (*S3, error)

	once  sync.Once
	s3    *S3
	s3Err error
}

// NewRouter returns a router whose S3 backend is built from cfg.
func NewRouter(cfg S3Config) *Router {
	return &Router{NewS3: func(ctx context.Context) (*S3, error) { return NewS3(ctx, cfg) }}
}

func (r *Router) backend(ctx context.Context, location string) (Source, error) {
	if !strings.HasPrefix(location, s3Scheme) {
		return File{}, nil
	}
	if r.NewS3 == nil {
		return nil, fmt.Errorf("%w: %s (no S3 backend)", ErrUnsupportedLocation, location)
	}
	r.once.Do(func() { r.s3, r.s3Err = r.NewS3(ctx) })
	if r.s3Err != nil {
		return nil, r.s3Err
	}
	return r.s3, nil
}

// Read dispatches on the location scheme.
func (r *Router) Read(ctx context.Context, location string) ([]byte, error) {
	b, err := r.backend(ctx, location)
	if err != nil {
		return nil, err
	}
	return b.Read(ctx, location)
}

// Write dispatches on the location scheme.
func (r *Router) Write(ctx context.Context, location string, data []byte) error {
	b, err := r.backend(ctx, location)
	if err != nil {
		return err
	}
	return b.Write(ctx, location, data)
}

// LoadInstance reads and decodes a root instance document.
func LoadInstance(ctx context.Context, src Source, location string) (*instance.Instance, error) {
	data, err := src.Read(ctx, location)
	if err != nil {
		return nil, err
	}
	inst, err := instance.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return inst, nil
}
