package handlers

import (
	"context"
	"io"

	"github.com/reelhub/backend/internal/models"
	"github.com/reelhub/backend/internal/storage"
)

// ProfileStore captures the persistence operations required by the profile
// and login handlers.
type ProfileStore interface {
	CreateWithCode(ctx context.Context, profile models.Profile, fallbackCode string) (models.Profile, error)
	FindByCode(ctx context.Context, code string) (models.Profile, error)
	FindByID(ctx context.Context, id string) (models.Profile, error)
}

// VideoStore captures persistence for the video catalog.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	ListFeatured(ctx context.Context, limit int) ([]models.Video, error)
	ListRecent(ctx context.Context, limit int) ([]models.Video, error)
	ListByProfile(ctx context.Context, profileID string) ([]models.Video, error)
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
}

// CodeMinter generates fallback access codes when the pool is exhausted.
type CodeMinter interface {
	Mint() (string, error)
}

// MediaStore persists and serves uploaded media blobs.
type MediaStore interface {
	Save(ctx context.Context, kind storage.Kind, originalName string, r io.Reader) (string, error)
	Stat(ctx context.Context, kind storage.Kind, key string) (int64, error)
	ReadRange(ctx context.Context, kind storage.Kind, key string, start, end int64) (io.ReadCloser, error)
}
