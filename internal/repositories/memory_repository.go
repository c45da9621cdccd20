package repositories

import (
	"context"

	"github.com/wememory/backend/internal/access"
	"github.com/wememory/backend/internal/models"
)

// MemoryRepository defines access-scoped data access for memories.
type MemoryRepository interface {
	Create(ctx context.Context, memory models.Memory) error
	Get(ctx context.Context, id string) (models.Memory, error)
	ListForEvent(ctx context.Context, eventID string, viewer access.Viewer) ([]models.Memory, error)
	CanAccess(ctx context.Context, id, userID string) (bool, error)
}

// CommentRepository defines data access for threaded memory comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.MemoryComment) error
	ListForMemory(ctx context.Context, memoryID string) ([]models.MemoryComment, error)
}

// ParticipantRepository defines data access for event participation.
type ParticipantRepository interface {
	Join(ctx context.Context, participant models.EventParticipant) error
	ListForEvent(ctx context.Context, eventID string) ([]models.EventParticipant, error)
	UpdateStatus(ctx context.Context, participantID, status string) error
}
