package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore keeps media on local disk under a fixed root, with separate
// sub-directories per kind.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates the media root and its sub-directories if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("filesystem store: root is required")
	}

	for _, kind := range []Kind{KindVideo, KindThumbnail} {
		if err := os.MkdirAll(filepath.Join(root, subdir(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("create media directory: %w", err)
		}
	}

	return &FilesystemStore{root: root}, nil
}

// Save writes the stream to a new file under the kind's sub-directory. The
// file is created exclusively, so an existing key is never overwritten; a
// partial file left by a failed write is removed.
func (s *FilesystemStore) Save(ctx context.Context, kind Kind, originalName string, r io.Reader) (string, error) {
	key, err := NewKey(originalName)
	if err != nil {
		return "", err
	}

	path, err := s.resolve(kind, key)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write media file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close media file: %w", err)
	}

	return key, nil
}

// Stat reports the size of a stored file.
func (s *FilesystemStore) Stat(ctx context.Context, kind Kind, key string) (int64, error) {
	path, err := s.resolve(kind, key)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("stat media file: %w", err)
	}

	return info.Size(), nil
}

// ReadRange opens the inclusive byte range [start, end] of a stored file.
func (s *FilesystemStore) ReadRange(ctx context.Context, kind Kind, key string, start, end int64) (io.ReadCloser, error) {
	path, err := s.resolve(kind, key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open media file: %w", err)
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek media file: %w", err)
	}

	return &sectionReadCloser{r: io.LimitReader(f, end-start+1), f: f}, nil
}

// resolve joins root, kind and key, rejecting keys that would escape the
// media root (keys arrive straight from request paths).
func (s *FilesystemStore) resolve(kind Kind, key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", ErrNotFound
	}
	return filepath.Join(s.root, subdir(kind), key), nil
}

func subdir(kind Kind) string {
	if kind == KindThumbnail {
		return "thumbnails"
	}
	return "uploads"
}

type sectionReadCloser struct {
	r io.Reader
	f *os.File
}

func (s *sectionReadCloser) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *sectionReadCloser) Close() error { return s.f.Close() }

var _ BlobStore = (*FilesystemStore)(nil)
