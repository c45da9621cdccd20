package geo

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingGeocoder struct {
	calls int
	place Place
	err   error
}

func (g *countingGeocoder) Resolve(_ context.Context, _ string) (Place, error) {
	g.calls++
	if g.err != nil {
		return Place{}, g.err
	}
	return g.place, nil
}

func TestCachingGeocoderCachesHits(t *testing.T) {
	base := &countingGeocoder{place: Place{Latitude: 1, Longitude: 2, City: "Testville"}}
	cached := NewCachingGeocoder(base, time.Minute)

	for i := 0; i < 3; i++ {
		place, err := cached.Resolve(context.Background(), "123 Main St")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if place.City != "Testville" {
			t.Fatalf("unexpected place: %+v", place)
		}
	}

	if base.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", base.calls)
	}
}

func TestCachingGeocoderDistinctAddresses(t *testing.T) {
	base := &countingGeocoder{place: Place{Latitude: 1}}
	cached := NewCachingGeocoder(base, time.Minute)

	if _, err := cached.Resolve(context.Background(), "first"); err != nil {
		t.Fatalf("resolve first: %v", err)
	}
	if _, err := cached.Resolve(context.Background(), "second"); err != nil {
		t.Fatalf("resolve second: %v", err)
	}

	if base.calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", base.calls)
	}
}

func TestCachingGeocoderDoesNotCacheFailures(t *testing.T) {
	base := &countingGeocoder{err: ErrNoMatch}
	cached := NewCachingGeocoder(base, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cached.Resolve(context.Background(), "bad address"); !errors.Is(err, ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
	}

	if base.calls != 2 {
		t.Fatalf("expected failures to bypass the cache, got %d calls", base.calls)
	}
}

func TestCachingGeocoderUnconfigured(t *testing.T) {
	cached := NewCachingGeocoder(nil, time.Minute)
	if _, err := cached.Resolve(context.Background(), "anywhere"); !errors.Is(err, ErrGeocoderUnavailable) {
		t.Fatalf("expected ErrGeocoderUnavailable, got %v", err)
	}
}
