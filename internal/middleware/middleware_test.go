package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fieldvisit-backend/internal/auth"
	"fieldvisit-backend/internal/memstore"
	"fieldvisit-backend/internal/models"
)

func authFixture(t *testing.T) (*AuthMiddleware, *auth.JWTManager, *models.User, *models.User) {
	t.Helper()
	users := memstore.New().Users()
	ctx := context.Background()

	admin := &models.User{Name: "root", Role: models.RoleAdmin, PasswordHash: "x"}
	field := &models.User{Name: "alice", Role: models.RoleUser, PasswordHash: "x"}
	users.Upsert(ctx, admin)
	users.Upsert(ctx, field)

	jwt := auth.NewJWTManager("secret", "fieldvisit-backend", 1)
	return NewAuthMiddleware(jwt, users), jwt, admin, field
}

func token(t *testing.T, jwt *auth.JWTManager, u *models.User) string {
	t.Helper()
	tok, err := jwt.GenerateToken(u)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func TestRequireRole(t *testing.T) {
	m, jwt, admin, field := authFixture(t)

	var seenName string
	h := m.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenName, _ = GetNameFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"bad format", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + token(t, jwt, field), http.StatusForbidden},
		{"admin", "Bearer " + token(t, jwt, admin), http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
	if seenName != "root" {
		t.Errorf("context name = %q", seenName)
	}
}

func TestAuthenticateAcceptsQueryToken(t *testing.T) {
	m, jwt, _, field := authFixture(t)
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, _ := GetRoleFromContext(r.Context()); role != models.RoleUser {
			t.Errorf("role = %q", role)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws/visits?token="+token(t, jwt, field), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAuthenticateRejectsDeletedUser(t *testing.T) {
	jwt := auth.NewJWTManager("secret", "fieldvisit-backend", 1)
	m := NewAuthMiddleware(jwt, memstore.New().Users())
	h := m.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/visits", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, jwt, &models.User{ID: 99, Name: "ghost"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/visits", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id %q, header %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/visits", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" {
		t.Errorf("incoming id not kept: %q", seen)
	}
}

func TestPanicRecovery(t *testing.T) {
	h := PanicRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}
