package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fieldvisit-backend/internal/auth"
	"fieldvisit-backend/internal/events"
	"fieldvisit-backend/internal/geocode"
	"fieldvisit-backend/internal/handlers"
	"fieldvisit-backend/internal/health"
	"fieldvisit-backend/internal/memstore"
	"fieldvisit-backend/internal/middleware"
	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/services"
)

type failingGeocoder struct{}

func (failingGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return "", &geocode.ServiceError{StatusCode: http.StatusForbidden, Status: "REQUEST_DENIED", Message: "bad key"}
}

func (failingGeocoder) ForwardGeocode(context.Context, string) (*geocode.Location, error) {
	return nil, geocode.ErrNoResult
}

type testServer struct {
	*httptest.Server
	adminToken string
	userToken  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	jwt := auth.NewJWTManager("test-secret", "fieldvisit-backend", 1)

	settings := services.NewSystemSettingService(store.Settings())
	visits := services.NewVisitService(store.Visits(), store.Clients(), settings, nil, events.Nop{})
	users := services.NewUserService(store.Users(), jwt, nil)
	clients := services.NewClientService(store.Clients())

	ctx := context.Background()
	if _, err := users.Upsert(ctx, models.UpsertUserRequest{Name: "root", Role: models.RoleAdmin, Password: "adminpw"}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if _, err := users.Upsert(ctx, models.UpsertUserRequest{Name: "alice", Role: models.RoleUser, Password: "alicepw"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	router := NewRouter(Handlers{
		Auth:     handlers.NewAuthHandler(users),
		Users:    handlers.NewUserHandler(users),
		Visits:   handlers.NewVisitHandler(visits),
		Clients:  handlers.NewClientHandler(clients),
		Settings: handlers.NewSystemSettingHandler(settings),
		Geocode:  handlers.NewGeocodeHandler(failingGeocoder{}),
		Reports:  handlers.NewReportHandler(visits),
		Health:   handlers.NewHealthHandler(health.NewHealthChecker(store)),
	}, middleware.NewAuthMiddleware(jwt, users))

	srv := &testServer{Server: httptest.NewServer(router)}
	t.Cleanup(srv.Close)

	srv.adminToken = srv.login(t, "root", "admin", "adminpw")
	srv.userToken = srv.login(t, "alice", "user", "alicepw")
	return srv
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	obj, _ := decoded.(map[string]interface{})
	return resp, obj
}

func (s *testServer) login(t *testing.T, name, role, password string) string {
	t.Helper()
	resp, body := s.do(t, "POST", "/api/auth/login", "", models.LoginRequest{Name: name, Role: role, Password: password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", name, resp.StatusCode)
	}
	token, _ := body["token"].(string)
	return token
}

func checkIn(lat, lng float64) map[string]interface{} {
	return map[string]interface{}{
		"clientName":     "Acme",
		"companyName":    "Acme Corp",
		"checkInAddress": "Chennai",
		"latitude":       lat,
		"longitude":      lng,
	}
}

func TestVisitLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, "POST", "/api/visits/check-in", s.userToken, checkIn(13.0827, 80.2707))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("check-in status = %d body = %v", resp.StatusCode, body)
	}
	visit := body["visit"].(map[string]interface{})
	id := int(visit["id"].(float64))
	if visit["userName"] != "alice" {
		t.Errorf("userName not taken from token: %v", visit["userName"])
	}

	resp, _ = s.do(t, "POST", "/api/visits/check-in", s.userToken, checkIn(13.0827, 80.2707))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second check-in status = %d, want 409", resp.StatusCode)
	}

	resp, body = s.do(t, "GET", "/api/visits/active/alice", s.userToken, nil)
	if resp.StatusCode != http.StatusOK || int(body["id"].(float64)) != id {
		t.Errorf("active visit status = %d body = %v", resp.StatusCode, body)
	}

	checkOut := map[string]interface{}{"checkOutAddress": "Far away", "latitude": 13.0927, "longitude": 80.2807}
	resp, body = s.do(t, "POST", fmt.Sprintf("/api/visits/%d/check-out", id), s.userToken, checkOut)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check-out status = %d body = %v", resp.StatusCode, body)
	}
	if body["locationMismatch"] != true {
		t.Errorf("locationMismatch = %v", body["locationMismatch"])
	}

	resp, _ = s.do(t, "POST", fmt.Sprintf("/api/visits/%d/check-out", id), s.userToken, checkOut)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second check-out status = %d, want 409", resp.StatusCode)
	}

	resp, _ = s.do(t, "POST", "/api/visits/9999/check-out", s.userToken, checkOut)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown visit check-out status = %d, want 404", resp.StatusCode)
	}

	resp, body = s.do(t, "GET", "/api/reports/summary?userName=alice", s.userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d", resp.StatusCode)
	}
	if summary := body["summary"].(map[string]interface{}); summary["completed"].(float64) != 1 {
		t.Errorf("summary = %v", summary)
	}
}

func TestValidationErrorsNameTheField(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, "POST", "/api/visits/check-in", s.userToken, map[string]interface{}{"clientName": "Acme"})
	if resp.StatusCode != http.StatusBadRequest || body["field"] != "latitude" {
		t.Errorf("status = %d body = %v", resp.StatusCode, body)
	}

	resp, _ = s.do(t, "GET", "/api/visits/pending-checkouts?reminderMinutes=1000", s.userToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("pending out of range status = %d", resp.StatusCode)
	}

	resp, _ = s.do(t, "GET", "/api/visits?fromDate=yesterday", s.userToken, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad date status = %d", resp.StatusCode)
	}
}

func TestAdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, "POST", "/api/visits/check-in", s.userToken, checkIn(13.0827, 80.2707))
	id := int(body["visit"].(map[string]interface{})["id"].(float64))
	path := fmt.Sprintf("/api/visits/%d", id)

	if resp, _ := s.do(t, "DELETE", path, s.userToken, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("user delete status = %d, want 403", resp.StatusCode)
	}
	if resp, _ := s.do(t, "DELETE", path, s.adminToken, nil); resp.StatusCode != http.StatusOK {
		t.Errorf("admin delete status = %d", resp.StatusCode)
	}
	if resp, _ := s.do(t, "GET", path, s.adminToken, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted visit status = %d, want 404", resp.StatusCode)
	}

	if resp, _ := s.do(t, "GET", "/api/users", s.userToken, nil); resp.StatusCode != http.StatusForbidden {
		t.Errorf("user list users status = %d", resp.StatusCode)
	}
	if resp, _ := s.do(t, "GET", "/api/visits", "", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous list status = %d", resp.StatusCode)
	}
}

func TestSettingsOverHTTP(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, "GET", "/api/settings/distanceThreshold", s.userToken, nil)
	if resp.StatusCode != http.StatusOK || body["value"] != nil {
		t.Errorf("unset setting status = %d body = %v", resp.StatusCode, body)
	}

	bad := map[string]string{"value": "-1"}
	if resp, _ := s.do(t, "PUT", "/api/settings/distanceThreshold", s.adminToken, bad); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid threshold status = %d", resp.StatusCode)
	}
	good := map[string]string{"value": "800"}
	if resp, _ := s.do(t, "PUT", "/api/settings/distanceThreshold", s.userToken, good); resp.StatusCode != http.StatusForbidden {
		t.Errorf("user update status = %d", resp.StatusCode)
	}
	if resp, _ := s.do(t, "PUT", "/api/settings/distanceThreshold", s.adminToken, good); resp.StatusCode != http.StatusOK {
		t.Errorf("admin update status = %d", resp.StatusCode)
	}
	_, body = s.do(t, "GET", "/api/settings/distanceThreshold", s.userToken, nil)
	if body["value"] != "800" {
		t.Errorf("stored value = %v", body["value"])
	}
}

func TestUsersAndClientsOverHTTP(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, "GET", "/api/users/nobody", s.adminToken, nil)
	if body["exists"] != false {
		t.Errorf("unknown user body = %v", body)
	}
	_, body = s.do(t, "GET", "/api/users/alice", s.adminToken, nil)
	if body["exists"] != true {
		t.Errorf("known user body = %v", body)
	}
	if user := body["user"].(map[string]interface{}); user["passwordHash"] != nil || user["PasswordHash"] != nil {
		t.Errorf("password hash exposed: %v", user)
	}

	client := map[string]string{"name": "Globex", "company": "Globex Inc"}
	if resp, _ := s.do(t, "POST", "/api/clients", s.adminToken, client); resp.StatusCode != http.StatusCreated {
		t.Errorf("create client status = %d", resp.StatusCode)
	}
	if resp, _ := s.do(t, "POST", "/api/clients", s.adminToken, client); resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate client status = %d", resp.StatusCode)
	}

	if resp, _ := s.do(t, "DELETE", "/api/users/alice", s.adminToken, nil); resp.StatusCode != http.StatusOK {
		t.Errorf("delete user status = %d", resp.StatusCode)
	}
	// The deleted user's token no longer authenticates.
	if resp, _ := s.do(t, "GET", "/api/visits", s.userToken, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("deleted user status = %d", resp.StatusCode)
	}
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)
	resp, _ := s.do(t, "POST", "/api/auth/login", "", models.LoginRequest{Name: "alice", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d", resp.StatusCode)
	}
}

func TestGeocodeErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t)

	if resp, _ := s.do(t, "GET", "/api/geocode?lat=13.08&lng=80.27", s.userToken, nil); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("service error status = %d, want 502", resp.StatusCode)
	}
	if resp, _ := s.do(t, "GET", "/api/geocode-forward?address=nowhere", s.userToken, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("no result status = %d, want 404", resp.StatusCode)
	}
	for _, query := range []string{"lat=abc", "lat=NaN&lng=80.27", "lat=13.08&lng=Inf", "lat=91&lng=80.27", "lat=13.08&lng=-180.5"} {
		if resp, _ := s.do(t, "GET", "/api/geocode?"+query, s.userToken, nil); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", query, resp.StatusCode)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if resp, _ := s.do(t, "GET", path, "", nil); resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}
}
