package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	profiles := ProfileHandler{Profiles: deps.Profiles, Codes: deps.Codes, Limiter: deps.WriteLimiter}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Profiles:       deps.Profiles,
		Media:          deps.Media,
		Limiter:        deps.WriteLimiter,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	comments := CommentHandler{Comments: deps.Comments, Profiles: deps.Profiles}
	stream := StreamHandler{Media: deps.Media}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/profiles", profiles.Create)
	mux.HandleFunc("/api/profiles/{id}", profiles.Get)
	mux.HandleFunc("/api/login", profiles.Login)
	mux.HandleFunc("/api/videos", videos.Handle)
	mux.HandleFunc("/api/videos/featured", videos.Featured)
	mux.HandleFunc("/api/videos/{id}", videos.Get)
	mux.HandleFunc("/api/videos/{id}/comments", comments.Handle)
	mux.HandleFunc("/api/myvideos", videos.Mine)
	mux.HandleFunc("/video/{filename}", stream.Video)
	mux.HandleFunc("/thumb/{filename}", stream.Thumbnail)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Profiles       ProfileStore
	Videos         VideoStore
	Comments       CommentStore
	Media          MediaStore
	Codes          CodeMinter
	WriteLimiter   RateLimiter
	MaxUploadBytes int64
}
