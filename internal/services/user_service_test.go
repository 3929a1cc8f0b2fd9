package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fieldvisit-backend/internal/auth"
	"fieldvisit-backend/internal/memstore"
	"fieldvisit-backend/internal/models"
)

type memPictures struct {
	keys []string
	err  error
}

func (m *memPictures) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func newUserFixture() (*UserService, *memstore.Store, *memPictures) {
	store := memstore.New()
	pics := &memPictures{}
	jwt := auth.NewJWTManager("test-secret", "fieldvisit-backend", 1)
	return NewUserService(store.Users(), jwt, pics), store, pics
}

func TestUserUpsertHashesPassword(t *testing.T) {
	svc, store, _ := newUserFixture()
	ctx := context.Background()

	u, err := svc.Upsert(ctx, models.UpsertUserRequest{Name: "alice", Role: "User", Password: "pw"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if u.Role != models.RoleUser {
		t.Errorf("role = %q", u.Role)
	}

	stored, _ := store.Users().GetByNameAndRole(ctx, "alice", models.RoleUser)
	if stored.PasswordHash == "" || stored.PasswordHash == "pw" {
		t.Fatalf("password not hashed: %q", stored.PasswordHash)
	}
	if !auth.VerifyPassword(stored.PasswordHash, "pw") {
		t.Error("stored hash does not verify")
	}
}

func TestUserUpsertPasswordRules(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, models.UpsertUserRequest{Name: "bob"}); !errors.Is(err, ErrValidation) {
		t.Errorf("new user without password err = %v", err)
	}
	if _, err := svc.Upsert(ctx, models.UpsertUserRequest{Name: "bob", Role: "boss", Password: "x"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad role err = %v", err)
	}

	svc.Upsert(ctx, models.UpsertUserRequest{Name: "bob", Password: "first"})
	if _, err := svc.Upsert(ctx, models.UpsertUserRequest{Name: "bob", PhoneNumber: "999"}); err != nil {
		t.Fatalf("update without password: %v", err)
	}
	if _, err := svc.Login(ctx, models.LoginRequest{Name: "bob", Password: "first"}); err != nil {
		t.Errorf("password lost on update: %v", err)
	}
}

func TestUserLogin(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()
	svc.Upsert(ctx, models.UpsertUserRequest{Name: "carol", Role: models.RoleAdmin, Password: "secret"})

	resp, err := svc.Login(ctx, models.LoginRequest{Name: "carol", Role: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.JWTManager.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if claims.Name != "carol" || claims.Role != models.RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}

	for _, req := range []models.LoginRequest{
		{Name: "carol", Role: "admin", Password: "wrong"},
		{Name: "carol", Role: "user", Password: "secret"},
		{Name: "nobody", Password: "secret"},
	} {
		if _, err := svc.Login(ctx, req); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Login(%+v) err = %v, want ErrUnauthorized", req, err)
		}
	}
}

func TestUserProfilePicUploaded(t *testing.T) {
	svc, _, pics := newUserFixture()
	ctx := context.Background()

	u, err := svc.Upsert(ctx, models.UpsertUserRequest{
		Name: "dave", Password: "pw", ProfilePic: "data:image/png;base64,aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(pics.keys) != 1 || !strings.HasPrefix(pics.keys[0], "profile-pics/user-") || !strings.HasSuffix(pics.keys[0], ".png") {
		t.Fatalf("uploaded keys = %v", pics.keys)
	}
	if u.ProfilePicReference != "https://cdn.example.com/"+pics.keys[0] {
		t.Errorf("reference = %q", u.ProfilePicReference)
	}

	plain, _ := svc.Upsert(ctx, models.UpsertUserRequest{Name: "erin", Password: "pw", ProfilePic: "https://example.com/me.jpg"})
	if plain.ProfilePicReference != "https://example.com/me.jpg" || len(pics.keys) != 1 {
		t.Errorf("URL profile pic should be stored verbatim")
	}

	if _, err := svc.Upsert(ctx, models.UpsertUserRequest{Name: "frank", Password: "pw", ProfilePic: "data:image/png;base64,@@"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad data URI err = %v", err)
	}
}

func TestUserDeleteCascadesVisits(t *testing.T) {
	svc, store, _ := newUserFixture()
	ctx := context.Background()

	svc.Upsert(ctx, models.UpsertUserRequest{Name: "gina", Password: "pw"})
	store.Visits().Create(ctx, &models.Visit{UserName: "gina", CheckInTime: time.Now()})

	if err := svc.Delete(ctx, "gina"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByName(ctx, "gina"); !errors.Is(err, ErrNotFound) {
		t.Errorf("user still present: %v", err)
	}
	visits, _ := store.Visits().List(ctx, models.VisitFilter{UserName: "gina"})
	if len(visits) != 0 {
		t.Errorf("%d visits survived user delete", len(visits))
	}
	if err := svc.Delete(ctx, "gina"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}
