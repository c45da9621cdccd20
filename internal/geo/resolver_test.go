package geo

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingUpdater struct {
	mu     sync.Mutex
	places map[string]Place
}

func newRecordingUpdater() *recordingUpdater {
	return &recordingUpdater{places: make(map[string]Place)}
}

func (u *recordingUpdater) SetLocation(_ context.Context, eventID string, place Place) error {
	u.mu.Lock()
	u.places[eventID] = place
	u.mu.Unlock()
	return nil
}

func (u *recordingUpdater) get(eventID string) (Place, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	place, ok := u.places[eventID]
	return place, ok
}

func TestResolverGeocodesEnqueuedEvents(t *testing.T) {
	geocoder := &countingGeocoder{place: Place{Latitude: 40.7, Longitude: -74.0, City: "New York", State: "New York"}}
	updater := newRecordingUpdater()

	resolver := NewResolver(geocoder, updater, ResolverConfig{Workers: 2, QueueSize: 4}, nil)

	if err := resolver.Enqueue(context.Background(), "event-1", "some address"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := resolver.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	place, ok := updater.get("event-1")
	if !ok {
		t.Fatal("expected location to be persisted")
	}
	if place.City != "New York" {
		t.Fatalf("unexpected place: %+v", place)
	}
}

func TestResolverSkipsPersistOnGeocodeFailure(t *testing.T) {
	geocoder := &countingGeocoder{err: ErrNoMatch}
	updater := newRecordingUpdater()

	resolver := NewResolver(geocoder, updater, ResolverConfig{}, nil)

	if err := resolver.Enqueue(context.Background(), "event-1", "bad address"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := resolver.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if _, ok := updater.get("event-1"); ok {
		t.Fatal("expected no location persisted after geocode failure")
	}
}

func TestResolverEnqueueAfterShutdown(t *testing.T) {
	resolver := NewResolver(&countingGeocoder{}, newRecordingUpdater(), ResolverConfig{}, nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := resolver.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := resolver.Enqueue(context.Background(), "event-1", "address"); err == nil {
		t.Fatal("expected error enqueueing after shutdown")
	}
}

type slowGeocoder struct {
	delay time.Duration
	place Place
}

func (g *slowGeocoder) Resolve(_ context.Context, _ string) (Place, error) {
	time.Sleep(g.delay)
	return g.place, nil
}

func TestResolverShutdownDrainsQueuedJobs(t *testing.T) {
	geocoder := &slowGeocoder{delay: 10 * time.Millisecond, place: Place{Latitude: 51.5, City: "London"}}
	updater := newRecordingUpdater()

	resolver := NewResolver(geocoder, updater, ResolverConfig{Workers: 1, QueueSize: 8}, nil)

	ids := []string{"event-1", "event-2", "event-3", "event-4", "event-5"}
	for _, id := range ids {
		if err := resolver.Enqueue(context.Background(), id, "address for "+id); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := resolver.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	for _, id := range ids {
		if _, ok := updater.get(id); !ok {
			t.Fatalf("expected %s to be geocoded before shutdown returned", id)
		}
	}
}
