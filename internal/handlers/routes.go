package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Sessions: deps.Sessions, Limiter: deps.Limiter}
	events := EventHandler{Events: deps.Events, Sessions: deps.Sessions, Geocoder: deps.Geocoder}
	memories := MemoryHandler{Memories: deps.Memories, Sessions: deps.Sessions}
	comments := CommentHandler{Comments: deps.Comments, Sessions: deps.Sessions}
	participants := ParticipantHandler{Participants: deps.Participants, Sessions: deps.Sessions}
	uploads := MediaHandler{Uploader: deps.Uploader, Sessions: deps.Sessions}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/me", auth.Me)
	mux.HandleFunc("/api/v1/events", events.Handle)
	mux.HandleFunc("/api/v1/events/get", events.Get)
	mux.HandleFunc("/api/v1/events/access", events.Access)
	mux.HandleFunc("/api/v1/memories", memories.Handle)
	mux.HandleFunc("/api/v1/memories/access", memories.Access)
	mux.HandleFunc("/api/v1/comments", comments.Handle)
	mux.HandleFunc("/api/v1/participants", participants.Handle)
	mux.HandleFunc("/api/v1/media/images", uploads.UploadImage)
	mux.HandleFunc("/api/v1/media/videos", uploads.UploadVideo)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions     SessionService
	Events       EventStore
	Memories     MemoryStore
	Comments     CommentStore
	Participants ParticipantStore
	Uploader     MediaUploader
	Geocoder     GeocodeScheduler
	Limiter      RateLimiter
}
