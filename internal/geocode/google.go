package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleGeocoder calls the Google Maps Geocoding API.
type GoogleGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewGoogleGeocoder(apiKey, baseURL string, timeout time.Duration) *GoogleGeocoder {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleGeocoder{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))

	log.Printf("[Geocode] Reverse geocoding: lat=%v, lng=%v", lat, lng)
	resp, err := g.call(ctx, params)
	if err != nil {
		return "", err
	}
	return resp.Results[0].FormattedAddress, nil
}

func (g *GoogleGeocoder) ForwardGeocode(ctx context.Context, address string) (*Location, error) {
	params := url.Values{}
	params.Set("address", address)

	log.Printf("[Geocode] Forward geocoding: %s", address)
	resp, err := g.call(ctx, params)
	if err != nil {
		return nil, err
	}
	first := resp.Results[0]
	return &Location{
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}

// call performs the request and guarantees at least one result on success.
func (g *GoogleGeocoder) call(ctx context.Context, params url.Values) (*googleResponse, error) {
	params.Set("key", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ServiceError{Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("parse response: %w", err)}
	}

	switch parsed.Status {
	case "OK":
		if len(parsed.Results) == 0 {
			return nil, ErrNoResult
		}
		return &parsed, nil
	case "ZERO_RESULTS":
		return nil, ErrNoResult
	default:
		log.Printf("[Geocode] ✗ Provider status %s: %s", parsed.Status, parsed.ErrorMessage)
		return nil, &ServiceError{StatusCode: resp.StatusCode, Status: parsed.Status, Message: parsed.ErrorMessage}
	}
}
