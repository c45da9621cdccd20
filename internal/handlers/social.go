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

// CommentHandler provides memory comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Sessions SessionService
	NowFunc  func() time.Time
}

// Handle dispatches /api/v1/comments requests by method.
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

	if h.Comments == nil {
		logger.Error("comment store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "comment services unavailable"})
		return
	}

	memoryID := strings.TrimSpace(r.URL.Query().Get("memory_id"))
	if memoryID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "memory_id is required"})
		return
	}

	comments, err := h.Comments.ListForMemory(ctx, memoryID)
	if err != nil {
		logger.Error("list comments failed", "error", err, "memoryId", memoryID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to list comments"})
		return
	}

	payload := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		payload = append(payload, toCommentResponse(comment))
	}

	respondJSON(ctx, w, http.StatusOK, commentListResponse{Comments: payload})
}

func (h CommentHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Comments == nil {
		logger.Error("comment store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "comment services unavailable"})
		return
	}

	_, user := viewerFromRequest(r, h.Sessions)
	if user == nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.MemoryID == "" || req.Content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "memoryId and content are required"})
		return
	}

	comment := models.MemoryComment{
		ID:        uuid.NewString(),
		MemoryID:  req.MemoryID,
		ParentID:  req.ParentID,
		Content:   req.Content,
		UserID:    user.ID,
		CreatedAt: nowOrDefault(h.NowFunc),
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "memory not found"})
			return
		}
		logger.Error("create comment failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to create comment"})
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toCommentResponse(comment))
}

// ParticipantHandler provides event participation endpoints.
type ParticipantHandler struct {
	Participants ParticipantStore
	Sessions     SessionService
	NowFunc      func() time.Time
}

// Handle dispatches /api/v1/participants requests by method.
func (h ParticipantHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.join(w, r)
	case http.MethodPatch:
		h.updateStatus(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h ParticipantHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Participants == nil {
		logger.Error("participant store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "participant services unavailable"})
		return
	}

	eventID := strings.TrimSpace(r.URL.Query().Get("event_id"))
	if eventID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "event_id is required"})
		return
	}

	participants, err := h.Participants.ListForEvent(ctx, eventID)
	if err != nil {
		logger.Error("list participants failed", "error", err, "eventId", eventID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to list participants"})
		return
	}

	payload := make([]participantResponse, 0, len(participants))
	for _, participant := range participants {
		payload = append(payload, toParticipantResponse(participant))
	}

	respondJSON(ctx, w, http.StatusOK, participantListResponse{Participants: payload})
}

func (h ParticipantHandler) join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Participants == nil {
		logger.Error("participant store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "participant services unavailable"})
		return
	}

	_, user := viewerFromRequest(r, h.Sessions)
	if user == nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req joinEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid participant payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.EventID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "eventId is required"})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleParticipant
	}
	if role != models.RoleOrganizer && role != models.RoleParticipant && role != models.RoleInvited {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown role"})
		return
	}

	participant := models.EventParticipant{
		ID:        uuid.NewString(),
		EventID:   req.EventID,
		UserID:    user.ID,
		Role:      role,
		Status:    models.StatusConfirmed,
		CreatedAt: nowOrDefault(h.NowFunc),
	}

	if err := h.Participants.Join(ctx, participant); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "already participating"})
		case errors.Is(err, repositories.ErrNotFound):
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "event not found"})
		default:
			logger.Error("join event failed", "error", err, "userId", user.ID)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to join event"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toParticipantResponse(participant))
}

func (h ParticipantHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Participants == nil {
		logger.Error("participant store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "participant services unavailable"})
		return
	}

	_, user := viewerFromRequest(r, h.Sessions)
	if user == nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req updateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid participant payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.ParticipantID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "participantId is required"})
		return
	}
	if req.Status != models.StatusConfirmed && req.Status != models.StatusPending && req.Status != models.StatusDeclined {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	if err := h.Participants.UpdateStatus(ctx, req.ParticipantID, req.Status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "participant not found"})
			return
		}
		logger.Error("update participant failed", "error", err, "participantId", req.ParticipantID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to update participant"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": req.Status})
}

func nowOrDefault(nowFunc func() time.Time) time.Time {
	if nowFunc != nil {
		return nowFunc()
	}
	return time.Now().UTC()
}

type createCommentRequest struct {
	MemoryID string  `json:"memoryId"`
	ParentID *string `json:"parentId"`
	Content  string  `json:"content"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	MemoryID  string    `json:"memoryId"`
	ParentID  *string   `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type commentListResponse struct {
	Comments []commentResponse `json:"comments"`
}

func toCommentResponse(comment models.MemoryComment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		MemoryID:  comment.MemoryID,
		ParentID:  comment.ParentID,
		Content:   comment.Content,
		UserID:    comment.UserID,
		CreatedAt: comment.CreatedAt,
	}
}

type joinEventRequest struct {
	EventID string `json:"eventId"`
	Role    string `json:"role"`
}

type updateParticipantRequest struct {
	ParticipantID string `json:"participantId"`
	Status        string `json:"status"`
}

type participantResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type participantListResponse struct {
	Participants []participantResponse `json:"participants"`
}

func toParticipantResponse(participant models.EventParticipant) participantResponse {
	return participantResponse{
		ID:        participant.ID,
		EventID:   participant.EventID,
		UserID:    participant.UserID,
		Role:      participant.Role,
		Status:    participant.Status,
		CreatedAt: participant.CreatedAt,
	}
}
