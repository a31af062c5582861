package repositories

import (
	"context"

	"github.com/reelhub/backend/internal/models"
)

// CommentRepository exposes data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	// ListByVideo returns comments oldest first for display.
	ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
}
