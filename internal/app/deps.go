package app

import (
	"context"
	"fmt"

	"github.com/reelhub/backend/internal/codes"
	"github.com/reelhub/backend/internal/config"
	"github.com/reelhub/backend/internal/db"
	"github.com/reelhub/backend/internal/handlers"
	"github.com/reelhub/backend/internal/middleware"
	"github.com/reelhub/backend/internal/repositories"
	"github.com/reelhub/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	var (
		media storage.BlobStore
		err   error
	)

	switch cfg.StorageBackend {
	case config.StorageS3:
		media, err = storage.NewS3Store(ctx, cfg.ObjectStore)
	case config.StorageFilesystem, "":
		media, err = storage.NewFilesystemStore(cfg.MediaDir)
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return handlers.Dependencies{}, err
	}

	limiter := middleware.NewIPRateLimiter(
		cfg.WriteLimit.Requests,
		cfg.WriteLimit.Window,
		cfg.WriteLimit.Burst,
		cfg.WriteLimit.TTL,
	)

	return handlers.Dependencies{
		Profiles:       repositories.NewPostgresProfileRepository(pool),
		Videos:         repositories.NewPostgresVideoRepository(pool),
		Comments:       repositories.NewPostgresCommentRepository(pool),
		Media:          media,
		Codes:          codes.NewIssuer(),
		WriteLimiter:   limiter,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, nil
}
