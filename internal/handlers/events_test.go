package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wememory/backend/internal/access"
	"github.com/wememory/backend/internal/models"
	"github.com/wememory/backend/internal/repositories"
)

type fakeEventStore struct {
	events     map[string]models.EventThread
	lastViewer access.Viewer
	lastOpts   repositories.ListEventsOptions
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[string]models.EventThread)}
}

func (s *fakeEventStore) Create(_ context.Context, event models.EventThread) error {
	s.events[event.ID] = event
	return nil
}

func (s *fakeEventStore) Get(_ context.Context, id string) (models.EventThread, error) {
	event, ok := s.events[id]
	if !ok {
		return models.EventThread{}, repositories.ErrNotFound
	}
	return event, nil
}

func (s *fakeEventStore) List(_ context.Context, viewer access.Viewer, opts repositories.ListEventsOptions) ([]models.EventThread, error) {
	s.lastViewer = viewer
	s.lastOpts = opts

	visible := make([]models.EventThread, 0, len(s.events))
	for _, event := range s.events {
		if event.Visibility == models.VisibilityPublic {
			visible = append(visible, event)
			continue
		}
		if owner, ok := viewer.UserID(); ok && owner == event.CreatedBy {
			visible = append(visible, event)
		}
	}
	return visible, nil
}

func (s *fakeEventStore) CanAccess(_ context.Context, id, userID string) (bool, error) {
	event, ok := s.events[id]
	if !ok {
		return false, nil
	}
	return event.Visibility == models.VisibilityPublic || event.CreatedBy == userID, nil
}

type recordingScheduler struct {
	eventIDs  []string
	addresses []string
}

func (s *recordingScheduler) Enqueue(_ context.Context, eventID, address string) error {
	s.eventIDs = append(s.eventIDs, eventID)
	s.addresses = append(s.addresses, address)
	return nil
}

func TestEventHandlerListScopesToViewer(t *testing.T) {
	sessions, _ := newTestSessions(t)
	user, tokens := signUpUser(t, sessions, "owner@example.com", "supersafe")

	store := newFakeEventStore()
	store.events["pub"] = models.EventThread{ID: "pub", Visibility: models.VisibilityPublic}
	store.events["priv"] = models.EventThread{ID: "priv", Visibility: models.VisibilityPrivate, CreatedBy: user.ID}

	handler := EventHandler{Events: store, Sessions: sessions}

	// Anonymous callers see public events only.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	var resp eventListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != "pub" {
		t.Fatalf("expected only the public event anonymously, got %+v", resp.Events)
	}

	// The owner also sees their private event.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec = httptest.NewRecorder()
	handler.Handle(rec, req)

	resp = eventListResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected both events for the owner, got %+v", resp.Events)
	}
}

func TestEventHandlerListLocationFilter(t *testing.T) {
	sessions, _ := newTestSessions(t)
	store := newFakeEventStore()
	handler := EventHandler{Events: store, Sessions: sessions}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?lat=37.77&lng=-122.41&radius_km=25", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if store.lastOpts.Location == nil {
		t.Fatal("expected a location filter to reach the store")
	}
	if store.lastOpts.Location.RadiusKm != 25 {
		t.Fatalf("unexpected radius: %+v", store.lastOpts.Location)
	}
}

func TestEventHandlerListRejectsPartialLocation(t *testing.T) {
	sessions, _ := newTestSessions(t)
	handler := EventHandler{Events: newFakeEventStore(), Sessions: sessions}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?lat=37.77", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestEventHandlerCreateRequiresAuth(t *testing.T) {
	sessions, _ := newTestSessions(t)
	handler := EventHandler{Events: newFakeEventStore(), Sessions: sessions}

	body, _ := json.Marshal(createEventRequest{Title: "Reunion", StartDate: time.Now()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestEventHandlerCreateSchedulesGeocoding(t *testing.T) {
	sessions, _ := newTestSessions(t)
	_, tokens := signUpUser(t, sessions, "owner@example.com", "supersafe")

	store := newFakeEventStore()
	scheduler := &recordingScheduler{}
	handler := EventHandler{Events: store, Sessions: sessions, Geocoder: scheduler}

	body, _ := json.Marshal(createEventRequest{
		Title:     "Summer Reunion",
		StartDate: time.Date(2026, 7, 4, 18, 0, 0, 0, time.UTC),
		Address:   "Golden Gate Park, San Francisco",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if len(scheduler.eventIDs) != 1 {
		t.Fatalf("expected one geocode job, got %d", len(scheduler.eventIDs))
	}
	if scheduler.addresses[0] != "Golden Gate Park, San Francisco" {
		t.Fatalf("unexpected geocode address: %q", scheduler.addresses[0])
	}
}

func TestEventHandlerCreateSkipsGeocodingWithCoordinates(t *testing.T) {
	sessions, _ := newTestSessions(t)
	_, tokens := signUpUser(t, sessions, "owner@example.com", "supersafe")

	lat, lng := 37.77, -122.41
	scheduler := &recordingScheduler{}
	handler := EventHandler{Events: newFakeEventStore(), Sessions: sessions, Geocoder: scheduler}

	body, _ := json.Marshal(createEventRequest{
		Title:     "Picnic",
		StartDate: time.Now(),
		Address:   "somewhere",
		Latitude:  &lat,
		Longitude: &lng,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}
	if len(scheduler.eventIDs) != 0 {
		t.Fatalf("expected no geocode jobs, got %d", len(scheduler.eventIDs))
	}
}

func TestEventHandlerCreateRejectsUnknownVisibility(t *testing.T) {
	sessions, _ := newTestSessions(t)
	_, tokens := signUpUser(t, sessions, "owner@example.com", "supersafe")
	handler := EventHandler{Events: newFakeEventStore(), Sessions: sessions}

	body, _ := json.Marshal(createEventRequest{Title: "Picnic", StartDate: time.Now(), Visibility: "friends"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestEventHandlerGet(t *testing.T) {
	sessions, _ := newTestSessions(t)
	store := newFakeEventStore()
	store.events["e1"] = models.EventThread{ID: "e1", Title: "Reunion", Visibility: models.VisibilityPublic}
	handler := EventHandler{Events: store, Sessions: sessions}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/get?id=e1", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/events/get?id=missing", nil)
	rec = httptest.NewRecorder()
	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestEventHandlerAccess(t *testing.T) {
	sessions, _ := newTestSessions(t)
	user, tokens := signUpUser(t, sessions, "owner@example.com", "supersafe")

	store := newFakeEventStore()
	store.events["priv"] = models.EventThread{ID: "priv", Visibility: models.VisibilityPrivate, CreatedBy: user.ID}
	handler := EventHandler{Events: store, Sessions: sessions}

	check := func(t *testing.T, token string, id string) bool {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/events/access?id="+id, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.Access(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
		}
		var resp accessResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp.Allowed
	}

	if check(t, "", "priv") {
		t.Fatal("anonymous caller should not reach a private event")
	}
	if !check(t, tokens.AccessToken, "priv") {
		t.Fatal("owner should reach their private event")
	}
	// A missing row reads as no access, not an error.
	if check(t, tokens.AccessToken, "missing") {
		t.Fatal("missing event should read as no access")
	}
}
