package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Place is a resolved location for a typed address.
type Place struct {
	Latitude    float64
	Longitude   float64
	City        string
	State       string
	DisplayName string
}

// Geocoder resolves a free-text address to a place.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (Place, error)
}

// HTTPGeocoder resolves addresses against a Nominatim-style JSON endpoint.
type HTTPGeocoder struct {
	Endpoint string
	Client   *http.Client
	Timeout  time.Duration
}

// NewHTTPGeocoder constructs a Geocoder that queries the provided endpoint.
func NewHTTPGeocoder(endpoint string, timeout time.Duration) *HTTPGeocoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGeocoder{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
		Timeout:  timeout,
	}
}

// Resolve queries the endpoint for the address and parses the best match.
func (g *HTTPGeocoder) Resolve(ctx context.Context, address string) (Place, error) {
	if g == nil || strings.TrimSpace(g.Endpoint) == "" {
		return Place{}, ErrGeocoderUnavailable
	}
	if strings.TrimSpace(address) == "" {
		return Place{}, ErrNoMatch
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	query := url.Values{}
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("addressdetails", "1")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, g.Endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("build geocode request: %w", err)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("geocode %q: unexpected status %d", address, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Place{}, fmt.Errorf("read geocode response: %w", err)
	}

	var payload []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
		Address     struct {
			City  string `json:"city"`
			Town  string `json:"town"`
			State string `json:"state"`
		} `json:"address"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Place{}, fmt.Errorf("parse geocode response: %w", err)
	}

	if len(payload) == 0 {
		return Place{}, ErrNoMatch
	}

	match := payload[0]
	lat, err := strconv.ParseFloat(match.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parse latitude %q: %w", match.Lat, err)
	}
	lng, err := strconv.ParseFloat(match.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parse longitude %q: %w", match.Lon, err)
	}

	city := match.Address.City
	if city == "" {
		city = match.Address.Town
	}

	return Place{
		Latitude:    lat,
		Longitude:   lng,
		City:        city,
		State:       match.Address.State,
		DisplayName: match.DisplayName,
	}, nil
}
