package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelhub/backend/internal/logging"
	"github.com/reelhub/backend/internal/models"
	"github.com/reelhub/backend/internal/repositories"
	"github.com/reelhub/backend/internal/storage"
)

const (
	featuredLimit = 10
	recentLimit   = 100

	// multipartMemoryLimit bounds what ParseMultipartForm keeps in memory;
	// larger parts spill to temporary files.
	multipartMemoryLimit = 32 << 20
)

// VideoHandler provides upload and listing endpoints for the video catalog.
type VideoHandler struct {
	Videos         VideoStore
	Profiles       ProfileStore
	Media          MediaStore
	Limiter        RateLimiter
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// Handle dispatches /api/videos: GET lists recent videos, POST uploads one.
func (h VideoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.recent(w, r)
	case http.MethodPost:
		h.upload(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// upload handles POST /api/videos. The multipart body carries a required
// video file, an optional thumbnail, title, description, and the uploader's
// access code. The media write completes before the catalog insert so a
// failed write can never leave orphan metadata.
func (h VideoHandler) upload(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.upload")
	defer span.End()
	logger := logging.FromContext(ctx)

	if h.Videos == nil || h.Profiles == nil || h.Media == nil {
		logger.Error("upload dependencies unavailable", "hasVideos", h.Videos != nil, "hasProfiles", h.Profiles != nil, "hasMedia", h.Media != nil)
		respondError(ctx, w, http.StatusInternalServerError, "upload service unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "uploads") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		logger.Warn("invalid multipart payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title required")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "video file required")
		return
	}
	defer file.Close()

	code := strings.TrimSpace(r.FormValue("code"))
	if code == "" {
		respondError(ctx, w, http.StatusForbidden, "invalid code, log in to upload")
		return
	}

	profile, err := h.Profiles.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusForbidden, "invalid code, log in to upload")
			return
		}
		logger.Error("upload code lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not verify code")
		return
	}

	filename, err := h.Media.Save(ctx, storage.KindVideo, header.Filename, file)
	if err != nil {
		logger.Error("store video file", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not store video")
		return
	}

	thumbnail := ""
	if thumbFile, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		thumbnail, err = h.Media.Save(ctx, storage.KindThumbnail, thumbHeader.Filename, thumbFile)
		if err != nil {
			logger.Error("store thumbnail file", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "could not store thumbnail")
			return
		}
	}

	video := models.Video{
		ID:          uuid.NewString(),
		ProfileID:   profile.ID,
		Title:       title,
		Filename:    filename,
		Thumbnail:   thumbnail,
		Description: strings.TrimSpace(r.FormValue("description")),
		CreatedAt:   h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("record upload", "error", err, "filename", filename)
		respondError(ctx, w, http.StatusInternalServerError, "could not record upload")
		return
	}

	logger.Info("video uploaded", "videoId", video.ID, "profileId", profile.ID, "filename", filename)

	respondJSON(ctx, w, http.StatusOK, uploadResponse{Success: true, ID: video.ID})
}

// Featured handles GET /api/videos/featured: the newest videos seeding the
// carousel.
func (h VideoHandler) Featured(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videos, err := h.Videos.ListFeatured(ctx, featuredLimit)
	if err != nil {
		logger.Error("list featured videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not list videos")
		return
	}

	items := make([]videoSummary, 0, len(videos))
	for _, v := range videos {
		items = append(items, videoSummary{ID: v.ID, Title: v.Title, Thumbnail: v.Thumbnail, Filename: v.Filename})
	}

	respondJSON(ctx, w, http.StatusOK, items)
}

func (h VideoHandler) recent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	videos, err := h.Videos.ListRecent(ctx, recentLimit)
	if err != nil {
		logger.Error("list recent videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not list videos")
		return
	}

	items := make([]videoListItem, 0, len(videos))
	for _, v := range videos {
		items = append(items, toVideoListItem(v))
	}

	respondJSON(ctx, w, http.StatusOK, items)
}

// Mine handles GET /api/myvideos?code=: a profile's own uploads.
func (h VideoHandler) Mine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		respondError(ctx, w, http.StatusBadRequest, "code required")
		return
	}

	profile, err := h.Profiles.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusForbidden, "invalid code")
			return
		}
		logger.Error("my videos code lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not verify code")
		return
	}

	videos, err := h.Videos.ListByProfile(ctx, profile.ID)
	if err != nil {
		logger.Error("list profile videos", "error", err, "profileId", profile.ID)
		respondError(ctx, w, http.StatusInternalServerError, "could not list videos")
		return
	}

	items := make([]videoListItem, 0, len(videos))
	for _, v := range videos {
		items = append(items, toVideoListItem(v))
	}

	respondJSON(ctx, w, http.StatusOK, items)
}

// Get handles GET /api/videos/{id}: full metadata plus the uploader's name.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("video lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not load video")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoDetail{
		ID:           video.ID,
		ProfileID:    video.ProfileID,
		Title:        video.Title,
		Filename:     video.Filename,
		Thumbnail:    video.Thumbnail,
		Description:  video.Description,
		CreatedAt:    video.CreatedAt,
		UploaderName: video.UploaderName,
	})
}

type uploadResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type videoSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Filename  string `json:"filename"`
}

type videoListItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Filename     string    `json:"filename"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Description  string    `json:"description,omitempty"`
	UploaderName string    `json:"uploader_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type videoDetail struct {
	ID           string    `json:"id"`
	ProfileID    string    `json:"profile_id"`
	Title        string    `json:"title"`
	Filename     string    `json:"filename"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UploaderName string    `json:"uploader_name,omitempty"`
}

func toVideoListItem(v models.Video) videoListItem {
	return videoListItem{
		ID:           v.ID,
		Title:        v.Title,
		Filename:     v.Filename,
		Thumbnail:    v.Thumbnail,
		Description:  v.Description,
		UploaderName: v.UploaderName,
		CreatedAt:    v.CreatedAt,
	}
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
