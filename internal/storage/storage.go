package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// Kind selects the media sub-area a blob belongs to.
type Kind string

const (
	KindVideo     Kind = "video"
	KindThumbnail Kind = "thumbnail"
)

// ErrNotFound indicates the requested blob does not exist in the store.
var ErrNotFound = errors.New("blob not found")

// BlobStore persists uploaded media decoupled from catalog records. Keys are
// generated by the store and are unique by construction; a key is never
// overwritten.
type BlobStore interface {
	// Save streams the content into the store under a freshly generated key
	// derived from the original filename's extension, and returns that key.
	Save(ctx context.Context, kind Kind, originalName string, r io.Reader) (string, error)
	// Stat reports the byte size of a stored blob.
	Stat(ctx context.Context, kind Kind, key string) (int64, error)
	// ReadRange opens the inclusive byte range [start, end] of a stored blob.
	// The caller owns the returned reader.
	ReadRange(ctx context.Context, kind Kind, key string, start, end int64) (io.ReadCloser, error)
}

// NewKey builds a collision-resistant storage key: millisecond timestamp,
// random hex suffix, and the original file extension.
func NewKey(originalName string) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate key suffix: %w", err)
	}
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(suffix), ext), nil
}
