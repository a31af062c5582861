package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhub/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresProfileRepository_CreateWithCodeDrainsPool(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	codeRepo := NewPostgresCodeRepository(testPool)
	if _, err := codeRepo.Seed(ctx, []string{"AAAA2222", "BBBB3333"}); err != nil {
		t.Fatalf("seed codes: %v", err)
	}

	repo := NewPostgresProfileRepository(testPool)

	poolCodes := map[string]struct{}{"AAAA2222": {}, "BBBB3333": {}}
	issued := make(map[string]struct{})

	for i := 0; i < 3; i++ {
		fallback := fmt.Sprintf("MINTED%02d", i)
		created, err := repo.CreateWithCode(ctx, testProfile(fmt.Sprintf("user-%d", i)), fallback)
		if err != nil {
			t.Fatalf("create profile %d: %v", i, err)
		}
		if created.Code == "" {
			t.Fatalf("profile %d has no code", i)
		}
		if _, dup := issued[created.Code]; dup {
			t.Fatalf("code %q issued twice", created.Code)
		}
		issued[created.Code] = struct{}{}

		if i < 2 {
			if _, fromPool := poolCodes[created.Code]; !fromPool {
				t.Fatalf("create %d: expected a pool code, got %q", i, created.Code)
			}
		} else if created.Code != fallback {
			t.Fatalf("create %d: expected fallback code %q after exhaustion, got %q", i, fallback, created.Code)
		}
	}

	free, err := codeRepo.CountFree(ctx)
	if err != nil {
		t.Fatalf("count free codes: %v", err)
	}
	if free != 0 {
		t.Fatalf("expected the pool to be drained, %d codes free", free)
	}
}

func TestPostgresProfileRepository_FindByCodeAndID(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresProfileRepository(testPool)

	created, err := repo.CreateWithCode(ctx, testProfile("Ada"), "ADACODE1")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if created.Code != "ADACODE1" {
		t.Fatalf("expected fallback code with empty pool, got %q", created.Code)
	}

	byCode, err := repo.FindByCode(ctx, "ADACODE1")
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if byCode.ID != created.ID || byCode.Name != "Ada" {
		t.Fatalf("unexpected profile: %+v", byCode)
	}

	byID, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.Code != "ADACODE1" {
		t.Fatalf("expected code to round-trip, got %q", byID.Code)
	}

	if _, err := repo.FindByCode(ctx, "NEVERISSUED"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}

	// A second profile must not be able to claim the same code.
	if _, err := repo.CreateWithCode(ctx, testProfile("Eve"), "ADACODE1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict reusing a code, got %v", err)
	}
}

func TestPostgresCodeRepository_SeedSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresCodeRepository(testPool)

	inserted, err := repo.Seed(ctx, []string{"XXXX7777", "YYYY8888"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	inserted, err = repo.Seed(ctx, []string{"YYYY8888", "ZZZZ9999"})
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("expected 1 inserted on overlapping seed, got %d", inserted)
	}

	free, err := repo.CountFree(ctx)
	if err != nil {
		t.Fatalf("count free: %v", err)
	}
	if free != 3 {
		t.Fatalf("expected 3 free codes, got %d", free)
	}
}

func TestPostgresVideoRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	profileRepo := NewPostgresProfileRepository(testPool)
	ada, err := profileRepo.CreateWithCode(ctx, testProfile("Ada"), "ADACODE2")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	bob, err := profileRepo.CreateWithCode(ctx, testProfile("Bob"), "BOBCODE2")
	if err != nil {
		t.Fatalf("create second profile: %v", err)
	}

	repo := NewPostgresVideoRepository(testPool)

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		owner := ada.ID
		if i == 1 {
			owner = bob.ID
		}
		video := models.Video{
			ID:        uuid.NewString(),
			ProfileID: owner,
			Title:     fmt.Sprintf("clip %d", i),
			Filename:  fmt.Sprintf("%d-file%d.mp4", base.UnixMilli(), i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, video); err != nil {
			t.Fatalf("create video %d: %v", i, err)
		}
		ids = append(ids, video.ID)
	}

	featured, err := repo.ListFeatured(ctx, 2)
	if err != nil {
		t.Fatalf("list featured: %v", err)
	}
	if len(featured) != 2 {
		t.Fatalf("expected 2 featured videos, got %d", len(featured))
	}
	if featured[0].ID != ids[2] || featured[1].ID != ids[1] {
		t.Fatalf("expected newest-first ordering, got %v then %v", featured[0].ID, featured[1].ID)
	}

	recent, err := repo.ListRecent(ctx, 100)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 recent videos, got %d", len(recent))
	}
	if recent[0].UploaderName != "Ada" || recent[1].UploaderName != "Bob" {
		t.Fatalf("expected uploader names to be joined, got %q and %q", recent[0].UploaderName, recent[1].UploaderName)
	}

	mine, err := repo.ListByProfile(ctx, ada.ID)
	if err != nil {
		t.Fatalf("list by profile: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 videos for Ada, got %d", len(mine))
	}
	if !sort.SliceIsSorted(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) }) {
		t.Fatal("expected newest-first ordering for profile videos")
	}

	detail, err := repo.FindByID(ctx, ids[0])
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if detail.UploaderName != "Ada" || detail.Title != "clip 0" {
		t.Fatalf("unexpected video detail: %+v", detail)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown video, got %v", err)
	}

	orphan := models.Video{
		ID:        uuid.NewString(),
		ProfileID: uuid.NewString(),
		Title:     "orphan",
		Filename:  "orphan.mp4",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown profile, got %v", err)
	}

	dup := models.Video{
		ID:        uuid.NewString(),
		ProfileID: ada.ID,
		Title:     "dup",
		Filename:  featured[0].Filename,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate filename, got %v", err)
	}
}

func TestPostgresCommentRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	profileRepo := NewPostgresProfileRepository(testPool)
	ada, err := profileRepo.CreateWithCode(ctx, testProfile("Ada"), "ADACODE3")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	videoRepo := NewPostgresVideoRepository(testPool)
	video := models.Video{
		ID:        uuid.NewString(),
		ProfileID: ada.ID,
		Title:     "Intro",
		Filename:  "intro.mp4",
		CreatedAt: time.Now().UTC(),
	}
	if err := videoRepo.Create(ctx, video); err != nil {
		t.Fatalf("create video: %v", err)
	}

	repo := NewPostgresCommentRepository(testPool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	attributed := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		ProfileID: &ada.ID,
		Name:      "Ada",
		Text:      "Great video!",
		CreatedAt: base,
	}
	anonymous := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		Name:      "",
		Text:      "me too",
		CreatedAt: base.Add(time.Minute),
	}

	if err := repo.Create(ctx, attributed); err != nil {
		t.Fatalf("create attributed comment: %v", err)
	}
	if err := repo.Create(ctx, anonymous); err != nil {
		t.Fatalf("create anonymous comment: %v", err)
	}

	comments, err := repo.ListByVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].ID != attributed.ID || comments[1].ID != anonymous.ID {
		t.Fatal("expected oldest-first ordering")
	}
	if comments[0].ProfileID == nil || *comments[0].ProfileID != ada.ID {
		t.Fatalf("expected attributed comment to keep its profile reference, got %v", comments[0].ProfileID)
	}
	if comments[1].ProfileID != nil {
		t.Fatalf("expected anonymous comment to have no profile reference, got %v", *comments[1].ProfileID)
	}

	stray := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   uuid.NewString(),
		Text:      "into the void",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, stray); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown video, got %v", err)
	}
}

func testProfile(name string) models.Profile {
	return models.Profile{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      "viewer",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE comments, videos, profiles, codes CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
