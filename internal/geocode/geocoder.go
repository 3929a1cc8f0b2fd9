// Package geocode translates between coordinates and human-readable addresses
// through an external provider. Failures are reported as ErrNoResult when the
// provider answered without a match, and as *ServiceError when the provider
// itself failed, so callers can decide whether to proceed without an address.
package geocode

import (
	"context"
	"errors"
	"fmt"
)

// Location is a forward geocoding result.
type Location struct {
	Latitude         float64 `json:"lat"`
	Longitude        float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// Geocoder is implemented by every geocoding provider.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
	ForwardGeocode(ctx context.Context, address string) (*Location, error)
}

// ErrNoResult means the provider answered but found nothing for the query.
var ErrNoResult = errors.New("geocode: no result")

// ServiceError means the provider was unreachable or rejected the request.
type ServiceError struct {
	StatusCode int    // HTTP status, 0 when the request never completed
	Status     string // provider status such as REQUEST_DENIED
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("geocoding service unavailable: %v", e.Err)
	case e.Status != "":
		return fmt.Sprintf("geocoding failed (%s): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("geocoding failed (HTTP %d): %s", e.StatusCode, e.Message)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsServiceError reports whether err is, or wraps, a *ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
