package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/reelhub/backend/internal/logging"
	"github.com/reelhub/backend/internal/storage"
)

// videoContentType is reported for all streamed video payloads.
const videoContentType = "video/mp4"

var errUnsatisfiableRange = errors.New("unsatisfiable range")

// StreamHandler serves stored media bytes. Video responses honor single
// byte-range requests so players can seek and resume.
type StreamHandler struct {
	Media MediaStore
}

// Video handles GET /video/{filename}.
func (h StreamHandler) Video(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)
	filename := r.PathValue("filename")

	size, err := h.Media.Stat(ctx, storage.KindVideo, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Error("stat video file", "error", err, "filename", filename)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rng, err := parseByteRange(r.Header.Get("Range"), size)
	if errors.Is(err, errUnsatisfiableRange) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	start, end := int64(0), size-1
	status := http.StatusOK
	if rng != nil {
		start, end = rng.start, rng.end
		status = http.StatusPartialContent
	}

	rc, err := h.Media.ReadRange(ctx, storage.KindVideo, filename, start, end)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Error("open video range", "error", err, "filename", filename)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", videoContentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	if status == http.StatusPartialContent {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	}
	w.WriteHeader(status)

	if _, err := io.Copy(w, rc); err != nil {
		// Players abort ranged requests constantly; log and move on.
		logger.Warn("video stream interrupted", "error", err, "filename", filename)
	}
}

// Thumbnail handles GET /thumb/{filename}.
func (h StreamHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)
	filename := r.PathValue("filename")

	size, err := h.Media.Stat(ctx, storage.KindThumbnail, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Error("stat thumbnail file", "error", err, "filename", filename)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rc, err := h.Media.ReadRange(ctx, storage.KindThumbnail, filename, 0, size-1)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Error("open thumbnail", "error", err, "filename", filename)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		logger.Warn("thumbnail transfer interrupted", "error", err, "filename", filename)
	}
}

type byteRange struct {
	start, end int64
}

// parseByteRange interprets a Range header of the form bytes=<start>-<end?>
// or the suffix form bytes=-<n>. A nil result with nil error means the full
// file should be served; errUnsatisfiableRange means the requested start lies
// beyond the end of the file. The returned range always sits inside
// [0, size-1] and never exceeds what was asked for.
func parseByteRange(header string, size int64) (*byteRange, error) {
	const prefix = "bytes="
	if header == "" || !strings.HasPrefix(header, prefix) || strings.Contains(header, ",") {
		return nil, nil
	}

	spec := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	startStr, endStr, found := strings.Cut(spec, "-")
	if !found {
		return nil, nil
	}

	if startStr == "" {
		// Suffix form: the last n bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return nil, nil
		}
		start := size - n
		if start < 0 {
			start = 0
		}
		if size == 0 {
			return nil, nil
		}
		return &byteRange{start: start, end: size - 1}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return nil, nil
	}
	if start >= size {
		return nil, errUnsatisfiableRange
	}

	end := size - 1
	if endStr != "" {
		e, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, nil
		}
		if e < start {
			return nil, nil
		}
		if e < end {
			end = e
		}
	}

	return &byteRange{start: start, end: end}, nil
}
