package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wememory/backend/internal/auth"
	"github.com/wememory/backend/internal/config"
	"github.com/wememory/backend/internal/db"
	"github.com/wememory/backend/internal/geo"
	"github.com/wememory/backend/internal/handlers"
	"github.com/wememory/backend/internal/media"
	"github.com/wememory/backend/internal/middleware"
	"github.com/wememory/backend/internal/repositories"
	"github.com/wememory/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the background geocoder.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	events := repositories.NewPostgresEventRepository(pool)
	memories := repositories.NewPostgresMemoryRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	participants := repositories.NewPostgresParticipantRepository(pool)

	sessionStore := repositories.NewPostgresSessionStore(pool)
	manager := auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore)
	sessions := auth.NewService(users, manager)

	store, err := storage.NewS3Store(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure object store: %w", err)
	}
	uploader := media.NewUploader(store)

	geocoder := geo.NewCachingGeocoder(
		geo.NewHTTPGeocoder(cfg.Geocoder.Endpoint, cfg.Geocoder.Timeout),
		cfg.Geocoder.CacheTTL,
	)
	resolver := geo.NewResolver(geocoder, events, geo.ResolverConfig{
		Workers:   cfg.Geocoder.Workers,
		QueueSize: cfg.Geocoder.QueueSize,
	}, slog.Default())

	limiter := middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute)

	deps := handlers.Dependencies{
		Sessions:     sessions,
		Events:       events,
		Memories:     memories,
		Comments:     comments,
		Participants: participants,
		Uploader:     uploader,
		Geocoder:     resolver,
		Limiter:      limiter,
	}

	cleanup := func(ctx context.Context) error {
		return resolver.Shutdown(ctx)
	}

	return deps, cleanup, nil
}
