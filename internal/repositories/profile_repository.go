package repositories

import (
	"context"

	"github.com/reelhub/backend/internal/models"
)

// ProfileRepository defines the data access contract for profiles and their
// access codes.
type ProfileRepository interface {
	// CreateWithCode atomically claims a free pool code (or falls back to the
	// pre-minted fallbackCode when the pool is exhausted) and inserts the
	// profile bound to it. The returned profile carries the assigned code.
	CreateWithCode(ctx context.Context, profile models.Profile, fallbackCode string) (models.Profile, error)
	FindByCode(ctx context.Context, code string) (models.Profile, error)
	FindByID(ctx context.Context, id string) (models.Profile, error)
}
