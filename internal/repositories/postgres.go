package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wememory/backend/internal/access"
	"github.com/wememory/backend/internal/auth"
	"github.com/wememory/backend/internal/db"
	"github.com/wememory/backend/internal/geo"
	"github.com/wememory/backend/internal/models"
)

// Event listings are capped; callers needing more must narrow their filters.
const maxEventRows = 100

// PostgresUserRepository provides PostgreSQL-backed persistence for accounts.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new account record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, user.ID, user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.ErrAccountExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches an account by its email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, auth.ErrAccountNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, auth.ErrAccountNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	return user, nil
}

// Update modifies an existing account record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3, updated_at = $4
        WHERE id = $1
    `, user.ID, user.Email, user.Password, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.ErrAccountExists
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return auth.ErrAccountNotFound
	}

	return nil
}

// PostgresEventRepository provides PostgreSQL-backed persistence for event threads.
type PostgresEventRepository struct {
	pool db.Pool
}

// NewPostgresEventRepository constructs an event repository backed by PostgreSQL.
func NewPostgresEventRepository(pool db.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Create persists a new event thread.
func (r *PostgresEventRepository) Create(ctx context.Context, event models.EventThread) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO event_threads
            (id, title, description, tags, start_date, end_date, latitude, longitude,
             address, city, state, visibility, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `, event.ID, event.Title, event.Description, event.Tags, event.StartDate,
		event.EndDate, event.Latitude, event.Longitude, event.Address, event.City,
		event.State, string(event.Visibility), event.CreatedBy, event.CreatedAt, event.UpdatedAt)
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
		return fmt.Errorf("insert event thread: %w", err)
	}

	return nil
}

// Update modifies an event thread. The owner predicate makes the write a
// no-op for anyone but the creator, reported as ErrNotFound.
func (r *PostgresEventRepository) Update(ctx context.Context, event models.EventThread) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE event_threads
        SET title = $3, description = $4, tags = $5, start_date = $6, end_date = $7,
            latitude = $8, longitude = $9, address = $10, city = $11, state = $12,
            visibility = $13, updated_at = $14
        WHERE id = $1 AND created_by = $2
    `, event.ID, event.CreatedBy, event.Title, event.Description, event.Tags,
		event.StartDate, event.EndDate, event.Latitude, event.Longitude,
		event.Address, event.City, event.State, string(event.Visibility), event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update event thread: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Get fetches a single event thread by identity.
func (r *PostgresEventRepository) Get(ctx context.Context, id string) (models.EventThread, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.EventThread{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, title, description, tags, start_date, end_date, latitude, longitude,
               address, city, state, visibility, created_by, created_at, updated_at
        FROM event_threads
        WHERE id = $1
    `, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EventThread{}, ErrNotFound
		}
		return models.EventThread{}, fmt.Errorf("select event thread: %w", err)
	}

	return event, nil
}

// List returns event threads the viewer may see, ordered by start date.
// Anonymous viewers get public threads only; identified viewers additionally
// get their own. A location filter composes with the visibility predicate in
// the same query so a spatial search never widens access.
func (r *PostgresEventRepository) List(ctx context.Context, viewer access.Viewer, opts ListEventsOptions) ([]models.EventThread, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `
        SELECT id, title, description, tags, start_date, end_date, latitude, longitude,
               address, city, state, visibility, created_by, created_at, updated_at
        FROM event_threads
        WHERE (visibility = 'public' OR created_by = $1)
    `
	args := []any{viewer.OwnerParam()}

	if opts.Location != nil {
		// Haversine great-circle distance in kilometres. Threads without
		// coordinates never match a spatial search.
		query += `
        AND latitude IS NOT NULL AND longitude IS NOT NULL
        AND 2 * 6371 * asin(sqrt(
                pow(sin(radians(latitude - $2) / 2), 2) +
                cos(radians($2)) * cos(radians(latitude)) *
                pow(sin(radians(longitude - $3) / 2), 2)
            )) <= $4
    `
		args = append(args, opts.Location.Latitude, opts.Location.Longitude, opts.Location.RadiusKm)
	}

	query += fmt.Sprintf(" ORDER BY start_date ASC LIMIT %d", maxEventRows)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query event threads: %w", err)
	}
	defer rows.Close()

	var events []models.EventThread
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event thread: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event threads: %w", err)
	}

	return events, nil
}

// CanAccess reports whether the user may read the event thread. A missing
// row is no access, not an error.
func (r *PostgresEventRepository) CanAccess(ctx context.Context, id, userID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT visibility, created_by
        FROM event_threads
        WHERE id = $1
    `, id)

	var visibility, createdBy string
	if err := row.Scan(&visibility, &createdBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select event visibility: %w", err)
	}

	return visibility == string(models.VisibilityPublic) || createdBy == userID, nil
}

// SetLocation persists resolved coordinates and locality for an event thread.
func (r *PostgresEventRepository) SetLocation(ctx context.Context, id string, place geo.Place) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE event_threads
        SET latitude = $2, longitude = $3, city = $4, state = $5
        WHERE id = $1
    `, id, place.Latitude, place.Longitude, place.City, place.State)
	if err != nil {
		return fmt.Errorf("update event location: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.EventThread, error) {
	var (
		event     models.EventThread
		endDate   sql.NullTime
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
	)

	err := row.Scan(&event.ID, &event.Title, &event.Description, &event.Tags,
		&event.StartDate, &endDate, &latitude, &longitude, &event.Address,
		&event.City, &event.State, &event.Visibility, &event.CreatedBy,
		&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return models.EventThread{}, err
	}

	if endDate.Valid {
		t := endDate.Time.UTC()
		event.EndDate = &t
	}
	if latitude.Valid {
		v := latitude.Float64
		event.Latitude = &v
	}
	if longitude.Valid {
		v := longitude.Float64
		event.Longitude = &v
	}

	return event, nil
}

// PostgresMemoryRepository provides PostgreSQL-backed persistence for memories.
type PostgresMemoryRepository struct {
	pool db.Pool
}

// NewPostgresMemoryRepository constructs a memory repository backed by PostgreSQL.
func NewPostgresMemoryRepository(pool db.Pool) *PostgresMemoryRepository {
	return &PostgresMemoryRepository{pool: pool}
}

// Create persists a new memory.
func (r *PostgresMemoryRepository) Create(ctx context.Context, memory models.Memory) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tags := make([]string, len(memory.EmotionTags))
	for i, tag := range memory.EmotionTags {
		tags[i] = string(tag)
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO memories (id, event_id, content, media_urls, emotion_tags, visibility, user_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, memory.ID, memory.EventID, memory.Content, memory.MediaURLs, tags,
		string(memory.Visibility), memory.UserID, memory.CreatedAt)
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
		return fmt.Errorf("insert memory: %w", err)
	}

	return nil
}

// Get fetches a single memory by identity.
func (r *PostgresMemoryRepository) Get(ctx context.Context, id string) (models.Memory, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Memory{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, event_id, content, media_urls, emotion_tags, visibility, user_id, created_at
        FROM memories
        WHERE id = $1
    `, id)

	memory, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Memory{}, ErrNotFound
		}
		return models.Memory{}, fmt.Errorf("select memory: %w", err)
	}

	return memory, nil
}

// ListForEvent returns the memories of an event the viewer may see, in
// creation order.
func (r *PostgresMemoryRepository) ListForEvent(ctx context.Context, eventID string, viewer access.Viewer) ([]models.Memory, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, event_id, content, media_urls, emotion_tags, visibility, user_id, created_at
        FROM memories
        WHERE event_id = $1
          AND (visibility = 'public' OR user_id = $2)
        ORDER BY created_at ASC
    `, eventID, viewer.OwnerParam())
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var memories []models.Memory
	for rows.Next() {
		memory, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		memories = append(memories, memory)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}

	return memories, nil
}

// CanAccess reports whether the user may read the memory. A missing row is
// no access, not an error.
func (r *PostgresMemoryRepository) CanAccess(ctx context.Context, id, userID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT visibility, user_id
        FROM memories
        WHERE id = $1
    `, id)

	var visibility, ownerID string
	if err := row.Scan(&visibility, &ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select memory visibility: %w", err)
	}

	return visibility == string(models.VisibilityPublic) || ownerID == userID, nil
}

func scanMemory(row rowScanner) (models.Memory, error) {
	var (
		memory  models.Memory
		eventID sql.NullString
		tags    []string
	)

	err := row.Scan(&memory.ID, &eventID, &memory.Content, &memory.MediaURLs,
		&tags, &memory.Visibility, &memory.UserID, &memory.CreatedAt)
	if err != nil {
		return models.Memory{}, err
	}

	if eventID.Valid {
		id := eventID.String
		memory.EventID = &id
	}

	memory.EmotionTags = make([]models.EmotionTag, len(tags))
	for i, tag := range tags {
		memory.EmotionTags[i] = models.EmotionTag(tag)
	}

	return memory, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ EventRepository = (*PostgresEventRepository)(nil)
var _ MemoryRepository = (*PostgresMemoryRepository)(nil)
var _ geo.EventLocationUpdater = (*PostgresEventRepository)(nil)
