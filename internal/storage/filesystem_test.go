package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *FilesystemStore {
	t.Helper()
	store, err := NewFilesystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func TestFilesystemStoreSaveAndStat(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	content := []byte("not really an mp4")
	key, err := store.Save(ctx, KindVideo, "clip.mp4", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if !strings.HasSuffix(key, ".mp4") {
		t.Fatalf("expected key to keep the original extension, got %q", key)
	}
	if key != filepath.Base(key) {
		t.Fatalf("key %q must not contain path separators", key)
	}

	size, err := store.Stat(ctx, KindVideo, key)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if size != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), size)
	}

	// Same content saved again must land under a different key.
	other, err := store.Save(ctx, KindVideo, "clip.mp4", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("save second copy: %v", err)
	}
	if other == key {
		t.Fatalf("expected distinct keys, both were %q", key)
	}
}

func TestFilesystemStoreKindsAreSeparated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	key, err := store.Save(ctx, KindThumbnail, "cover.jpg", strings.NewReader("jpg bytes"))
	if err != nil {
		t.Fatalf("save thumbnail: %v", err)
	}

	if _, err := store.Stat(ctx, KindVideo, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("thumbnail key must not resolve in the video area, got %v", err)
	}
	if _, err := store.Stat(ctx, KindThumbnail, key); err != nil {
		t.Fatalf("stat thumbnail: %v", err)
	}
}

func TestFilesystemStoreReadRange(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	content := make([]byte, 256)
	for i := range content {
		content[i] = byte(i)
	}

	key, err := store.Save(ctx, KindVideo, "clip.mp4", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	rc, err := store.ReadRange(ctx, KindVideo, key, 10, 19)
	if err != nil {
		t.Fatalf("read range: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, content[10:20]) {
		t.Fatalf("expected bytes 10..19, got % x", got)
	}
}

func TestFilesystemStoreMissingKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Stat(ctx, KindVideo, "nope.mp4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.ReadRange(ctx, KindVideo, "nope.mp4", 0, 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilesystemStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFilesystemStore(dir)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	secret := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(secret, []byte("private"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	for _, key := range []string{"../secret.txt", "..", "a/b.mp4", ".hidden"} {
		if _, err := store.Stat(ctx, KindVideo, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("key %q: expected ErrNotFound, got %v", key, err)
		}
	}
}

func TestFilesystemStoreSaveFailureLeavesNoFile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	failing := io.MultiReader(strings.NewReader("partial"), errReader{})
	if _, err := store.Save(ctx, KindVideo, "clip.mp4", failing); err == nil {
		t.Fatal("expected save to fail")
	}

	entries, err := os.ReadDir(filepath.Join(store.root, "uploads"))
	if err != nil {
		t.Fatalf("read uploads dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftover files, found %d", len(entries))
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk exploded") }
