package repositories

import (
	"context"

	"github.com/reelhub/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	// ListFeatured returns the newest videos for the carousel, created_at
	// descending with id as tie break.
	ListFeatured(ctx context.Context, limit int) ([]models.Video, error)
	// ListRecent returns the newest videos joined with their uploader's name.
	ListRecent(ctx context.Context, limit int) ([]models.Video, error)
	ListByProfile(ctx context.Context, profileID string) ([]models.Video, error)
	FindByID(ctx context.Context, id string) (models.Video, error)
}
