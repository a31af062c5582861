package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/reelhub/backend/internal/storage"
)

const streamFileSize = 1000

func newStreamFixture(t *testing.T) (StreamHandler, string, []byte) {
	t.Helper()

	media := newTestMediaStore(t)
	content := make([]byte, streamFileSize)
	for i := range content {
		content[i] = byte(i % 251)
	}

	key, err := media.Save(context.Background(), storage.KindVideo, "clip.mp4", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("save video: %v", err)
	}

	return StreamHandler{Media: media}, key, content
}

func streamRequest(key, rangeHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/video/"+key, nil)
	req.SetPathValue("filename", key)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	return req
}

func TestStreamVideoFullBody(t *testing.T) {
	handler, key, content := newStreamFixture(t)

	rec := httptest.NewRecorder()
	handler.Video(rec, streamRequest(key, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(streamFileSize) {
		t.Fatalf("expected Content-Length %d, got %s", streamFileSize, got)
	}
	if got := rec.Header().Get("Content-Type"); got != videoContentType {
		t.Fatalf("expected content type %s, got %s", videoContentType, got)
	}
	body, _ := io.ReadAll(rec.Body)
	if !bytes.Equal(body, content) {
		t.Fatalf("expected full file body, got %d bytes", len(body))
	}
}

func TestStreamVideoRange(t *testing.T) {
	handler, key, content := newStreamFixture(t)

	cases := []struct {
		name         string
		rangeHeader  string
		wantStart    int64
		wantEnd      int64
		wantContent  []byte
		contentRange string
	}{
		{"first hundred", "bytes=0-99", 0, 99, content[:100], "bytes 0-99/1000"},
		{"open ended", "bytes=500-", 500, 999, content[500:], "bytes 500-999/1000"},
		{"tail clamped", "bytes=900-4999", 900, 999, content[900:], "bytes 900-999/1000"},
		{"suffix", "bytes=-100", 900, 999, content[900:], "bytes 900-999/1000"},
		{"single byte", "bytes=42-42", 42, 42, content[42:43], "bytes 42-42/1000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Video(rec, streamRequest(key, tc.rangeHeader))

			if rec.Code != http.StatusPartialContent {
				t.Fatalf("expected status 206 got %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Range"); got != tc.contentRange {
				t.Fatalf("expected Content-Range %q, got %q", tc.contentRange, got)
			}
			if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
				t.Fatalf("expected Accept-Ranges bytes, got %q", got)
			}
			wantLen := tc.wantEnd - tc.wantStart + 1
			if got := rec.Header().Get("Content-Length"); got != strconv.FormatInt(wantLen, 10) {
				t.Fatalf("expected Content-Length %d, got %s", wantLen, got)
			}
			body, _ := io.ReadAll(rec.Body)
			if !bytes.Equal(body, tc.wantContent) {
				t.Fatalf("expected %d bytes starting at %d, got %d bytes", wantLen, tc.wantStart, len(body))
			}
		})
	}
}

func TestStreamVideoRangeBeyondEOF(t *testing.T) {
	handler, key, _ := newStreamFixture(t)

	rec := httptest.NewRecorder()
	handler.Video(rec, streamRequest(key, "bytes=2000-"))

	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("expected status 416 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */1000" {
		t.Fatalf("expected Content-Range bytes */1000, got %q", got)
	}
}

func TestStreamVideoMalformedRangeServesFullFile(t *testing.T) {
	handler, key, content := newStreamFixture(t)

	for _, header := range []string{"bytes=abc-def", "bites=0-99", "bytes=50-10", "bytes=-0"} {
		t.Run(header, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Video(rec, streamRequest(key, header))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200 got %d", rec.Code)
			}
			body, _ := io.ReadAll(rec.Body)
			if len(body) != len(content) {
				t.Fatalf("expected full body, got %d bytes", len(body))
			}
		})
	}
}

func TestStreamVideoNotFound(t *testing.T) {
	handler, _, _ := newStreamFixture(t)

	rec := httptest.NewRecorder()
	handler.Video(rec, streamRequest("missing.mp4", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestStreamThumbnail(t *testing.T) {
	media := newTestMediaStore(t)
	key, err := media.Save(context.Background(), storage.KindThumbnail, "cover.jpg", strings.NewReader("jpg bytes"))
	if err != nil {
		t.Fatalf("save thumbnail: %v", err)
	}

	handler := StreamHandler{Media: media}

	req := httptest.NewRequest(http.MethodGet, "/thumb/"+key, nil)
	req.SetPathValue("filename", key)
	rec := httptest.NewRecorder()

	handler.Thumbnail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", got)
	}
	if rec.Body.String() != "jpg bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/thumb/missing.jpg", nil)
	req.SetPathValue("filename", "missing.jpg")
	rec = httptest.NewRecorder()

	handler.Thumbnail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
}

func TestParseByteRange(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		size    int64
		want    *byteRange
		wantErr bool
	}{
		{"no header", "", 1000, nil, false},
		{"simple", "bytes=0-99", 1000, &byteRange{0, 99}, false},
		{"open ended", "bytes=10-", 1000, &byteRange{10, 999}, false},
		{"clamped end", "bytes=10-5000", 1000, &byteRange{10, 999}, false},
		{"suffix", "bytes=-200", 1000, &byteRange{800, 999}, false},
		{"suffix larger than file", "bytes=-5000", 1000, &byteRange{0, 999}, false},
		{"start at eof", "bytes=1000-", 1000, nil, true},
		{"start beyond eof", "bytes=9999-", 1000, nil, true},
		{"inverted", "bytes=50-10", 1000, nil, false},
		{"garbage start", "bytes=abc-", 1000, nil, false},
		{"wrong unit", "chunks=0-99", 1000, nil, false},
		{"multi range", "bytes=0-1,5-9", 1000, nil, false},
		{"negative start", "bytes=-5-10", 1000, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseByteRange(tc.header, tc.size)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected unsatisfiable range error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected full-file result, got %+v", got)
				}
				return
			}
			if got == nil || got.start != tc.want.start || got.end != tc.want.end {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}
