// Package blob selects the blob store implementation that holds the record
// tables.
package blob

import (
	"context"
	"fmt"

	"housingcore/internal/blob/core"
	"housingcore/internal/infra/blob/fs"
	"housingcore/internal/infra/blob/memory"
	"housingcore/internal/infra/blob/s3"
)

// Config selects and parameterises a driver.
type Config struct {
	Driver core.Driver
	FSRoot string
	S3     s3.Config
}

// Open returns the store named by cfg.Driver. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch cfg.Driver {
	case "", core.DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case core.DriverS3:
		return s3.New(ctx, cfg.S3)
	case core.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
