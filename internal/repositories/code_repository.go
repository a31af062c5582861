package repositories

import "context"

// CodeRepository manages the pre-seeded access code pool.
type CodeRepository interface {
	// Seed inserts the provided codes as unassigned pool entries, skipping any
	// value already present. Returns the number of codes actually inserted.
	Seed(ctx context.Context, values []string) (int, error)
	CountFree(ctx context.Context) (int, error)
}
