package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wememory/backend/internal/logging"
	"github.com/wememory/backend/internal/models"
	"github.com/wememory/backend/internal/repositories"
)

// MemoryHandler provides memory endpoints.
type MemoryHandler struct {
	Memories MemoryStore
	Sessions SessionService
	NowFunc  func() time.Time
}

// Handle dispatches /api/v1/memories requests by method.
func (h MemoryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// list returns the memories attached to an event that the caller may see,
// oldest first.
func (h MemoryHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Memories == nil {
		logger.Error("memory store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "memory services unavailable"})
		return
	}

	eventID := strings.TrimSpace(r.URL.Query().Get("event_id"))
	if eventID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "event_id is required"})
		return
	}

	viewer, _ := viewerFromRequest(r, h.Sessions)

	memories, err := h.Memories.ListForEvent(ctx, eventID, viewer)
	if err != nil {
		logger.Error("list memories failed", "error", err, "eventId", eventID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to list memories"})
		return
	}

	payload := make([]memoryResponse, 0, len(memories))
	for _, memory := range memories {
		payload = append(payload, toMemoryResponse(memory))
	}

	respondJSON(ctx, w, http.StatusOK, memoryListResponse{Memories: payload})
}

// create records a new memory owned by the caller.
func (h MemoryHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Memories == nil {
		logger.Error("memory store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "memory services unavailable"})
		return
	}

	_, user := viewerFromRequest(r, h.Sessions)
	if user == nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req createMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid memory payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && len(req.MediaURLs) == 0 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content or media is required"})
		return
	}

	visibility := models.Visibility(req.Visibility)
	if req.Visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown visibility"})
		return
	}

	tags := make([]models.EmotionTag, 0, len(req.EmotionTags))
	for _, raw := range req.EmotionTags {
		tag := models.EmotionTag(raw)
		if !tag.Valid() {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown emotion tag: " + raw})
			return
		}
		tags = append(tags, tag)
	}

	memory := models.Memory{
		ID:          uuid.NewString(),
		EventID:     req.EventID,
		Content:     req.Content,
		MediaURLs:   req.MediaURLs,
		EmotionTags: tags,
		Visibility:  visibility,
		UserID:      user.ID,
		CreatedAt:   h.now(),
	}

	if err := h.Memories.Create(ctx, memory); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "event not found"})
			return
		}
		logger.Error("create memory failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to create memory"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toMemoryResponse(memory))
}

// Access handles GET /api/v1/memories/access requests. A missing row is no
// access, not an error.
func (h MemoryHandler) Access(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	var userID string
	if _, user := viewerFromRequest(r, h.Sessions); user != nil {
		userID = user.ID
	}

	allowed, err := h.Memories.CanAccess(ctx, id, userID)
	if err != nil {
		logger.Error("memory access check failed", "error", err, "memoryId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to check access"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, accessResponse{Allowed: allowed})
}

func (h MemoryHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type createMemoryRequest struct {
	EventID     *string  `json:"eventId"`
	Content     string   `json:"content"`
	MediaURLs   []string `json:"mediaUrls"`
	EmotionTags []string `json:"emotionTags"`
	Visibility  string   `json:"visibility"`
}

type memoryResponse struct {
	ID          string    `json:"id"`
	EventID     *string   `json:"eventId,omitempty"`
	Content     string    `json:"content"`
	MediaURLs   []string  `json:"mediaUrls"`
	EmotionTags []string  `json:"emotionTags"`
	Visibility  string    `json:"visibility"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type memoryListResponse struct {
	Memories []memoryResponse `json:"memories"`
}

func toMemoryResponse(memory models.Memory) memoryResponse {
	tags := make([]string, 0, len(memory.EmotionTags))
	for _, tag := range memory.EmotionTags {
		tags = append(tags, string(tag))
	}
	return memoryResponse{
		ID:          memory.ID,
		EventID:     memory.EventID,
		Content:     memory.Content,
		MediaURLs:   memory.MediaURLs,
		EmotionTags: tags,
		Visibility:  string(memory.Visibility),
		UserID:      memory.UserID,
		CreatedAt:   memory.CreatedAt,
	}
}
