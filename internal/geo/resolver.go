package geo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wememory/backend/internal/logging"
)

// EventLocationUpdater persists resolved coordinates for event threads.
type EventLocationUpdater interface {
	SetLocation(ctx context.Context, eventID string, place Place) error
}

// ResolverConfig controls the concurrency characteristics of the resolver.
type ResolverConfig struct {
	QueueSize int
	Workers   int
}

// Resolver asynchronously geocodes event addresses and persists the result.
// Events created with a typed address but no coordinates are enqueued here;
// a failed resolution leaves the row ungeocoded rather than failing the
// creating request.
type Resolver struct {
	geocoder Geocoder
	updater  EventLocationUpdater
	logger   *slog.Logger

	jobs chan geocodeJob
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type geocodeJob struct {
	eventID string
	address string
}

var errResolverClosed = errors.New("geocode resolver closed")

// NewResolver constructs a background worker pool that geocodes addresses.
func NewResolver(geocoder Geocoder, updater EventLocationUpdater, cfg ResolverConfig, logger *slog.Logger) *Resolver {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Resolver{
		geocoder: geocoder,
		updater:  updater,
		logger:   logger,
		jobs:     make(chan geocodeJob, cfg.QueueSize),
	}

	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.worker()
	}

	return r
}

// Enqueue schedules address resolution for the supplied event. The read lock
// is held across the send so Shutdown cannot close the channel mid-send.
func (r *Resolver) Enqueue(ctx context.Context, eventID, address string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return errResolverClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.jobs <- geocodeJob{eventID: eventID, address: address}:
		return nil
	}
}

// Shutdown stops accepting new work and waits for the worker pool to drain
// the jobs already queued.
func (r *Resolver) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *Resolver) worker() {
	defer r.wg.Done()

	for job := range r.jobs {
		r.handleJob(job)
	}
}

func (r *Resolver) handleJob(job geocodeJob) {
	if r.geocoder == nil || r.updater == nil {
		r.logger.Error("geocode resolver missing dependencies", "hasGeocoder", r.geocoder != nil, "hasUpdater", r.updater != nil)
		return
	}

	jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobCtx, span := logging.StartSpan(logging.WithLogger(jobCtx, r.logger), "geocode event address")
	defer span.End()

	place, err := r.geocoder.Resolve(jobCtx, job.address)
	if err != nil {
		r.logger.Warn("geocode failed", "eventId", job.eventID, "address", job.address, "error", err)
		return
	}

	if err := r.updater.SetLocation(jobCtx, job.eventID, place); err != nil {
		span.Fail(err)
		r.logger.Error("persist event location", "eventId", job.eventID, "error", err)
	}
}
