package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wememory/backend/internal/logging"
	"github.com/wememory/backend/internal/models"
	"github.com/wememory/backend/internal/repositories"
)

// EventHandler provides event thread endpoints.
type EventHandler struct {
	Events   EventStore
	Sessions SessionService
	Geocoder GeocodeScheduler
	NowFunc  func() time.Time
}

// Handle dispatches /api/v1/events requests by method.
func (h EventHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// list returns the event threads the caller may see, optionally narrowed to
// a radius around a point.
func (h EventHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Events == nil {
		logger.Error("event store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "event services unavailable"})
		return
	}

	viewer, _ := viewerFromRequest(r, h.Sessions)

	opts := repositories.ListEventsOptions{}
	if filter, err := geoFilterFromQuery(r); err != nil {
		logger.Warn("invalid location filter", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	} else if filter != nil {
		opts.Location = filter
	}

	events, err := h.Events.List(ctx, viewer, opts)
	if err != nil {
		logger.Error("list events failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to list events"})
		return
	}

	payload := make([]eventResponse, 0, len(events))
	for _, event := range events {
		payload = append(payload, toEventResponse(event))
	}

	respondJSON(ctx, w, http.StatusOK, eventListResponse{Events: payload})
}

// create records a new event thread owned by the caller. Events typed with
// an address but no coordinates are geocoded in the background.
func (h EventHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Events == nil {
		logger.Error("event store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "event services unavailable"})
		return
	}

	_, user := viewerFromRequest(r, h.Sessions)
	if user == nil {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid event payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	if req.StartDate.IsZero() {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "startDate is required"})
		return
	}

	visibility := models.Visibility(req.Visibility)
	if req.Visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown visibility"})
		return
	}

	now := h.now()
	event := models.EventThread{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     strings.TrimSpace(req.Address),
		Visibility:  visibility,
		CreatedBy:   user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Events.Create(ctx, event); err != nil {
		logger.Error("create event failed", "error", err, "userId", user.ID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to create event"})
		return
	}

	if h.Geocoder != nil && event.Address != "" && event.Latitude == nil {
		if err := h.Geocoder.Enqueue(ctx, event.ID, event.Address); err != nil {
			// The row stays ungeocoded; creation still succeeded.
			logger.Warn("enqueue geocode failed", "eventId", event.ID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusCreated, toEventResponse(event))
}

// Get handles GET /api/v1/events/get requests.
func (h EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	event, err := h.Events.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "event not found"})
			return
		}
		logger.Error("get event failed", "error", err, "eventId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to fetch event"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, toEventResponse(event))
}

// Access handles GET /api/v1/events/access requests: an explicit boolean
// point check for the caller's identity. A missing row is no access, not an
// error.
func (h EventHandler) Access(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	var userID string
	if _, user := viewerFromRequest(r, h.Sessions); user != nil {
		userID = user.ID
	}

	allowed, err := h.Events.CanAccess(ctx, id, userID)
	if err != nil {
		logger.Error("event access check failed", "error", err, "eventId", id)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to check access"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, accessResponse{Allowed: allowed})
}

func (h EventHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// geoFilterFromQuery parses the optional lat/lng/radius_km triple. All three
// must appear together.
func geoFilterFromQuery(r *http.Request) (*repositories.GeoFilter, error) {
	query := r.URL.Query()
	latRaw, lngRaw, radiusRaw := query.Get("lat"), query.Get("lng"), query.Get("radius_km")

	if latRaw == "" && lngRaw == "" && radiusRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lngRaw == "" || radiusRaw == "" {
		return nil, errors.New("lat, lng, and radius_km must be supplied together")
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, errors.New("lat must be a number")
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, errors.New("lng must be a number")
	}
	radius, err := strconv.ParseFloat(radiusRaw, 64)
	if err != nil || radius <= 0 {
		return nil, errors.New("radius_km must be a positive number")
	}

	return &repositories.GeoFilter{Latitude: lat, Longitude: lng, RadiusKm: radius}, nil
}

type createEventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Address     string     `json:"address"`
	Visibility  string     `json:"visibility"`
}

type eventResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	Visibility  string     `json:"visibility"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type eventListResponse struct {
	Events []eventResponse `json:"events"`
}

type accessResponse struct {
	Allowed bool `json:"allowed"`
}

func toEventResponse(event models.EventThread) eventResponse {
	return eventResponse{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Tags:        event.Tags,
		StartDate:   event.StartDate,
		EndDate:     event.EndDate,
		Latitude:    event.Latitude,
		Longitude:   event.Longitude,
		Address:     event.Address,
		City:        event.City,
		State:       event.State,
		Visibility:  string(event.Visibility),
		CreatedBy:   event.CreatedBy,
		CreatedAt:   event.CreatedAt,
	}
}
