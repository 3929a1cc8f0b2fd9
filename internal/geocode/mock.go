package geocode

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// MockGeocoder answers without calling any provider. It is only used when the
// provider is explicitly set to "mock".
type MockGeocoder struct{}

func NewMockGeocoder() *MockGeocoder {
	log.Println("[Geocode] WARNING: using mock geocoder, addresses are coordinates")
	return &MockGeocoder{}
}

func (MockGeocoder) ReverseGeocode(_ context.Context, lat, lng float64) (string, error) {
	return fmt.Sprintf("%.6f, %.6f", lat, lng), nil
}

func (MockGeocoder) ForwardGeocode(_ context.Context, address string) (*Location, error) {
	return nil, ErrNoResult
}

// Unconfigured fails every lookup with a ServiceError. It stands in for a
// real provider whose API key is missing.
type Unconfigured struct{}

func errNotConfigured() error {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "API key not configured"}
}

func (Unconfigured) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return "", errNotConfigured()
}

func (Unconfigured) ForwardGeocode(context.Context, string) (*Location, error) {
	return nil, errNotConfigured()
}

// New picks the provider: "mock" for the mock, anything else is Google.
// Google without an API key yields Unconfigured.
func New(provider, apiKey, baseURL string, timeout time.Duration) Geocoder {
	if provider == "mock" {
		return NewMockGeocoder()
	}
	if apiKey == "" {
		log.Println("[Geocode] WARNING: no geocoding API key set, lookups will fail until one is configured")
		return Unconfigured{}
	}
	return NewGoogleGeocoder(apiKey, baseURL, timeout)
}
