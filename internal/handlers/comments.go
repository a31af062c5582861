package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelhub/backend/internal/logging"
	"github.com/reelhub/backend/internal/models"
	"github.com/reelhub/backend/internal/repositories"
)

// anonymousName is shown for comments posted without a usable display name.
const anonymousName = "Anonymous"

// CommentHandler provides listing and creation of video comments. Anonymous
// comments are allowed; a comment is attributed to a profile only when a
// valid access code accompanies it, in which case the profile's name
// overrides any client-supplied one.
type CommentHandler struct {
	Comments CommentStore
	Profiles ProfileStore
	NowFunc  func() time.Time
}

// Handle dispatches /api/videos/{id}/comments: GET lists, POST creates.
func (h CommentHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h CommentHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	comments, err := h.Comments.ListByVideo(ctx, r.PathValue("id"))
	if err != nil {
		logger.Error("list comments", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not list comments")
		return
	}

	items := make([]commentPayload, 0, len(comments))
	for _, c := range comments {
		name := c.Name
		if name == "" {
			name = anonymousName
		}
		items = append(items, commentPayload{
			ID:        c.ID,
			Name:      name,
			ProfileID: c.ProfileID,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}

	respondJSON(ctx, w, http.StatusOK, items)
}

func (h CommentHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Comments == nil {
		logger.Error("comment store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "comment service unavailable")
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		respondError(ctx, w, http.StatusBadRequest, "text required")
		return
	}

	var profileID *string
	name := strings.TrimSpace(req.Name)

	// A valid code pins the comment to its profile; an unknown or absent code
	// silently falls back to the free-text name so stale credentials never
	// block posting.
	if code := strings.TrimSpace(req.Code); code != "" && h.Profiles != nil {
		if profile, err := h.Profiles.FindByCode(ctx, code); err == nil {
			profileID = &profile.ID
			name = profile.Name
		} else if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("comment code lookup failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "could not verify code")
			return
		}
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   r.PathValue("id"),
		ProfileID: profileID,
		Name:      name,
		Text:      req.Text,
		CreatedAt: h.now(),
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		logger.Error("create comment", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not add comment")
		return
	}

	respondJSON(ctx, w, http.StatusOK, addCommentResponse{Success: true, ID: comment.ID, CreatedAt: comment.CreatedAt})
}

type addCommentRequest struct {
	Text string `json:"text"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type addCommentResponse struct {
	Success   bool      `json:"success"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type commentPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ProfileID *string   `json:"profile_id,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
