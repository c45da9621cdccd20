package geo

import "errors"

var (
	// ErrGeocoderUnavailable indicates the geocoder is not configured.
	ErrGeocoderUnavailable = errors.New("geocoder unavailable")
	// ErrNoMatch indicates the address did not resolve to any place.
	ErrNoMatch = errors.New("address did not match any place")
)
