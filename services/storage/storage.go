package filesvc

import (
	"context"
	"fmt"

	"github.com/jifunze/jifunze/core"
)

const (
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// New returns the storage selected by `storage.backend`.
func New(ctx context.Context, conf *core.Config) (core.FileStorage, error) {
	switch conf.Storage.Backend {
	case BackendS3:
		s, err := NewS3Storage(ctx, conf)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory, "":
		return NewMemoryStorage(conf), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}
}
