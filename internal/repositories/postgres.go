package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reelhub/backend/internal/db"
	"github.com/reelhub/backend/internal/models"
)

const profileColumns = "id, name, mobile, email, type, description, code, created_at"

// PostgresProfileRepository provides PostgreSQL-backed persistence for
// profiles and the access code pool.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// CreateWithCode claims one free pool code and inserts the profile in a single
// transaction, so concurrent creations can never receive the same code. When
// the pool is empty the pre-minted fallback code is used instead; the fallback
// never touches the codes table.
func (r *PostgresProfileRepository) CreateWithCode(ctx context.Context, profile models.Profile, fallbackCode string) (models.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgxv5.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var code string
		err := tx.QueryRow(ctx, `
            SELECT code FROM codes
            WHERE assigned = FALSE
            ORDER BY code
            LIMIT 1
            FOR UPDATE SKIP LOCKED
        `).Scan(&code)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			code = fallbackCode
		case err != nil:
			return fmt.Errorf("select free code: %w", err)
		default:
			if _, err := tx.Exec(ctx, `UPDATE codes SET assigned = TRUE WHERE code = $1`, code); err != nil {
				return fmt.Errorf("mark code assigned: %w", err)
			}
		}

		profile.Code = code

		_, err = tx.Exec(ctx, `
            INSERT INTO profiles (id, name, mobile, email, type, description, code, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `, profile.ID, profile.Name, profile.Mobile, profile.Email, profile.Type, profile.Description, profile.Code, profile.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}

		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Profile{}, ErrConflict
		}
		return models.Profile{}, err
	}

	return profile, nil
}

// FindByCode resolves an access code to its profile.
func (r *PostgresProfileRepository) FindByCode(ctx context.Context, code string) (models.Profile, error) {
	return r.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE code = $1`, code)
}

// FindByID fetches a profile by its identifier.
func (r *PostgresProfileRepository) FindByID(ctx context.Context, id string) (models.Profile, error) {
	return r.findOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

func (r *PostgresProfileRepository) findOne(ctx context.Context, query string, arg any) (models.Profile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Profile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var profile models.Profile
	row := conn.QueryRow(ctx, query, arg)
	if err := row.Scan(&profile.ID, &profile.Name, &profile.Mobile, &profile.Email, &profile.Type, &profile.Description, &profile.Code, &profile.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrNotFound
		}
		return models.Profile{}, fmt.Errorf("select profile: %w", err)
	}

	return profile, nil
}

// PostgresCodeRepository manages pool entries in the codes table.
type PostgresCodeRepository struct {
	pool db.Pool
}

// NewPostgresCodeRepository constructs a code repository backed by PostgreSQL.
func NewPostgresCodeRepository(pool db.Pool) *PostgresCodeRepository {
	return &PostgresCodeRepository{pool: pool}
}

// Seed inserts unassigned codes, skipping values already present.
func (r *PostgresCodeRepository) Seed(ctx context.Context, values []string) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	inserted := 0
	for _, value := range values {
		tag, err := conn.Exec(ctx, `
            INSERT INTO codes (code, assigned)
            VALUES ($1, FALSE)
            ON CONFLICT (code) DO NOTHING
        `, value)
		if err != nil {
			return inserted, fmt.Errorf("insert code: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// CountFree reports how many pool codes remain unassigned.
func (r *PostgresCodeRepository) CountFree(ctx context.Context) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM codes WHERE assigned = FALSE`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count free codes: %w", err)
	}

	return count, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record. The media file must already be persisted;
// this performs no file I/O.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, profile_id, title, filename, thumbnail, description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, video.ID, video.ProfileID, video.Title, video.Filename, video.Thumbnail, video.Description, video.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// ListFeatured returns the newest videos for the carousel.
func (r *PostgresVideoRepository) ListFeatured(ctx context.Context, limit int) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT id, profile_id, title, filename, thumbnail, description, created_at, '' AS uploader_name
        FROM videos
        ORDER BY created_at DESC, id DESC
        LIMIT $1
    `, limit)
}

// ListRecent returns the newest videos joined with their uploader's name.
func (r *PostgresVideoRepository) ListRecent(ctx context.Context, limit int) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT v.id, v.profile_id, v.title, v.filename, v.thumbnail, v.description, v.created_at, COALESCE(p.name, '')
        FROM videos v
        LEFT JOIN profiles p ON v.profile_id = p.id
        ORDER BY v.created_at DESC, v.id DESC
        LIMIT $1
    `, limit)
}

// ListByProfile returns a profile's uploads, newest first.
func (r *PostgresVideoRepository) ListByProfile(ctx context.Context, profileID string) ([]models.Video, error) {
	return r.list(ctx, `
        SELECT id, profile_id, title, filename, thumbnail, description, created_at, '' AS uploader_name
        FROM videos
        WHERE profile_id = $1
        ORDER BY created_at DESC, id DESC
    `, profileID)
}

// FindByID fetches a single video together with its uploader's name.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT v.id, v.profile_id, v.title, v.filename, v.thumbnail, v.description, v.created_at, COALESCE(p.name, '')
        FROM videos v
        LEFT JOIN profiles p ON v.profile_id = p.id
        WHERE v.id = $1
    `, id)

	var video models.Video
	if err := row.Scan(&video.ID, &video.ProfileID, &video.Title, &video.Filename, &video.Thumbnail, &video.Description, &video.CreatedAt, &video.UploaderName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

func (r *PostgresVideoRepository) list(ctx context.Context, query string, arg any) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.ProfileID, &video.Title, &video.Filename, &video.Thumbnail, &video.Description, &video.CreatedAt, &video.UploaderName); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, profile_id, name, text, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.ProfileID, comment.Name, comment.Text, comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListByVideo returns a video's comments oldest first.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, profile_id, name, text, created_at
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at ASC, id ASC
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var (
			comment   models.Comment
			profileID sql.NullString
		)
		if err := rows.Scan(&comment.ID, &comment.VideoID, &profileID, &comment.Name, &comment.Text, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if profileID.Valid {
			id := profileID.String
			comment.ProfileID = &id
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

var _ ProfileRepository = (*PostgresProfileRepository)(nil)
var _ CodeRepository = (*PostgresCodeRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ CommentRepository = (*PostgresCommentRepository)(nil)
