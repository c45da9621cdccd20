package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wememory/backend/internal/db"
	"github.com/wememory/backend/internal/models"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for memory comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.MemoryComment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO memory_comments (id, memory_id, parent_id, content, user_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.MemoryID, comment.ParentID, comment.Content, comment.UserID, comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListForMemory returns all comments on a memory in creation order. Callers
// reconstruct the thread from ParentID.
func (r *PostgresCommentRepository) ListForMemory(ctx context.Context, memoryID string) ([]models.MemoryComment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, memory_id, parent_id, content, user_id, created_at
        FROM memory_comments
        WHERE memory_id = $1
        ORDER BY created_at ASC
    `, memoryID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.MemoryComment
	for rows.Next() {
		var (
			comment  models.MemoryComment
			parentID sql.NullString
		)

		if err := rows.Scan(&comment.ID, &comment.MemoryID, &parentID, &comment.Content, &comment.UserID, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}

		if parentID.Valid {
			id := parentID.String
			comment.ParentID = &id
		}

		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// PostgresParticipantRepository provides PostgreSQL-backed persistence for event participation.
type PostgresParticipantRepository struct {
	pool db.Pool
}

// NewPostgresParticipantRepository constructs a participant repository backed by PostgreSQL.
func NewPostgresParticipantRepository(pool db.Pool) *PostgresParticipantRepository {
	return &PostgresParticipantRepository{pool: pool}
}

// Join records a user's participation in an event thread. Joining the same
// event twice is a conflict.
func (r *PostgresParticipantRepository) Join(ctx context.Context, participant models.EventParticipant) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO event_participants (id, event_id, user_id, role, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, participant.ID, participant.EventID, participant.UserID, participant.Role, participant.Status, participant.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert participant: %w", err)
	}

	return nil
}

// ListForEvent returns the participants of an event thread.
func (r *PostgresParticipantRepository) ListForEvent(ctx context.Context, eventID string) ([]models.EventParticipant, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, event_id, user_id, role, status, created_at
        FROM event_participants
        WHERE event_id = $1
        ORDER BY created_at ASC
    `, eventID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var participants []models.EventParticipant
	for rows.Next() {
		var participant models.EventParticipant
		if err := rows.Scan(&participant.ID, &participant.EventID, &participant.UserID, &participant.Role, &participant.Status, &participant.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, participant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}

	return participants, nil
}

// UpdateStatus updates the status for a participation record.
func (r *PostgresParticipantRepository) UpdateStatus(ctx context.Context, participantID, status string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE event_participants
        SET status = $2
        WHERE id = $1
    `, participantID, status)
	if err != nil {
		return fmt.Errorf("update participant status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
var _ ParticipantRepository = (*PostgresParticipantRepository)(nil)
