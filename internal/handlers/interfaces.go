package handlers

import (
	"context"
	"io"

	"github.com/wememory/backend/internal/access"
	"github.com/wememory/backend/internal/media"
	"github.com/wememory/backend/internal/models"
	"github.com/wememory/backend/internal/repositories"
)

// SessionService captures the authentication operations required by the
// HTTP handlers.
type SessionService interface {
	SignIn(ctx context.Context, credentials models.Credentials) (models.AuthUser, models.SessionTokens, error)
	SignUp(ctx context.Context, credentials models.Credentials) (models.AuthUser, models.SessionTokens, error)
	SignOut(ctx context.Context, accessToken, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	CurrentUser(ctx context.Context, accessToken string) *models.AuthUser
}

// EventStore captures access-scoped persistence for event threads.
type EventStore interface {
	Create(ctx context.Context, event models.EventThread) error
	Get(ctx context.Context, id string) (models.EventThread, error)
	List(ctx context.Context, viewer access.Viewer, opts repositories.ListEventsOptions) ([]models.EventThread, error)
	CanAccess(ctx context.Context, id, userID string) (bool, error)
}

// MemoryStore captures access-scoped persistence for memories.
type MemoryStore interface {
	Create(ctx context.Context, memory models.Memory) error
	Get(ctx context.Context, id string) (models.Memory, error)
	ListForEvent(ctx context.Context, eventID string, viewer access.Viewer) ([]models.Memory, error)
	CanAccess(ctx context.Context, id, userID string) (bool, error)
}

// CommentStore captures persistence for memory comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.MemoryComment) error
	ListForMemory(ctx context.Context, memoryID string) ([]models.MemoryComment, error)
}

// ParticipantStore captures persistence for event participation.
type ParticipantStore interface {
	Join(ctx context.Context, participant models.EventParticipant) error
	ListForEvent(ctx context.Context, eventID string) ([]models.EventParticipant, error)
	UpdateStatus(ctx context.Context, participantID, status string) error
}

// MediaUploader stores media files and returns their public URLs.
type MediaUploader interface {
	UploadImage(ctx context.Context, r io.Reader, opts media.UploadOptions) (string, error)
	UploadVideo(ctx context.Context, r io.Reader, opts media.UploadOptions) (string, error)
}

// GeocodeScheduler enqueues background address resolution for events.
type GeocodeScheduler interface {
	Enqueue(ctx context.Context, eventID, address string) error
}
