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

// ProfileHandler implements profile creation and code-based login. The access
// code returned on creation is the profile's sole, permanent credential.
type ProfileHandler struct {
	Profiles ProfileStore
	Codes    CodeMinter
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Create handles POST /api/profiles.
func (h ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, span := logging.StartSpan(r.Context(), "profile.create")
	defer span.End()
	logger := logging.FromContext(ctx)

	if h.Profiles == nil || h.Codes == nil {
		logger.Error("profile dependencies unavailable", "hasProfiles", h.Profiles != nil, "hasCodes", h.Codes != nil)
		respondError(ctx, w, http.StatusInternalServerError, "profile service unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "profiles") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests")
		return
	}

	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	if req.Name == "" || req.Type == "" {
		logger.Warn("profile missing required fields", "hasName", req.Name != "", "hasType", req.Type != "")
		respondError(ctx, w, http.StatusBadRequest, "name and type are required")
		return
	}

	// Mint the fallback before touching the store; it is only used when the
	// pool turns out to be empty inside the assignment transaction.
	fallback, err := h.Codes.Mint()
	if err != nil {
		logger.Error("mint fallback code", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not create profile")
		return
	}

	profile := models.Profile{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Mobile:      strings.TrimSpace(req.Mobile),
		Email:       strings.TrimSpace(req.Email),
		Type:        req.Type,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   h.now(),
	}

	created, err := h.Profiles.CreateWithCode(ctx, profile, fallback)
	if err != nil {
		logger.Error("create profile", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not create profile")
		return
	}

	logger.Info("profile created", "profileId", created.ID, "type", created.Type)

	respondJSON(ctx, w, http.StatusOK, createProfileResponse{
		Success: true,
		ID:      created.ID,
		Code:    created.Code,
	})
}

// Login handles POST /api/login: it resolves an access code to its profile.
func (h ProfileHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Profiles == nil {
		logger.Error("profile store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "profile service unavailable")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		respondError(ctx, w, http.StatusBadRequest, "code required")
		return
	}

	profile, err := h.Profiles.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "profile not found")
			return
		}
		logger.Error("login lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not log in")
		return
	}

	respondJSON(ctx, w, http.StatusOK, loginResponse{Success: true, Profile: toProfilePayload(profile)})
}

// Get handles GET /api/profiles/{id}.
func (h ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Profiles == nil {
		logger.Error("profile store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "profile service unavailable")
		return
	}

	profile, err := h.Profiles.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "not found")
			return
		}
		logger.Error("profile lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "could not load profile")
		return
	}

	respondJSON(ctx, w, http.StatusOK, toProfilePayload(profile))
}

type createProfileRequest struct {
	Name        string `json:"name"`
	Mobile      string `json:"mobile"`
	Email       string `json:"email"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type createProfileResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Code    string `json:"code"`
}

type loginRequest struct {
	Code string `json:"code"`
}

type loginResponse struct {
	Success bool           `json:"success"`
	Profile profilePayload `json:"profile"`
}

type profilePayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Mobile      string `json:"mobile,omitempty"`
	Email       string `json:"email,omitempty"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Code        string `json:"code"`
}

func toProfilePayload(p models.Profile) profilePayload {
	return profilePayload{
		ID:          p.ID,
		Name:        p.Name,
		Mobile:      p.Mobile,
		Email:       p.Email,
		Type:        p.Type,
		Description: p.Description,
		Code:        p.Code,
	}
}

func (h ProfileHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
