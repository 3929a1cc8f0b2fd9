package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"fieldvisit-backend/internal/auth"
	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/repositories"
	"fieldvisit-backend/internal/storage"

	"github.com/google/uuid"
)

// ProfilePicStore uploads decoded profile pictures and returns a reference.
type ProfilePicStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type UserService struct {
	Repo       UserStore
	JWTManager *auth.JWTManager
	Pictures   ProfilePicStore // optional
}

func NewUserService(repo UserStore, jwtManager *auth.JWTManager, pictures ProfilePicStore) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
		Pictures:   pictures,
	}
}

// Upsert creates the user or updates the one with the same name and role.
// The password is required for new users and optional on update.
func (s *UserService) Upsert(ctx context.Context, req models.UpsertUserRequest) (*models.User, error) {
	user := &models.User{
		Name:                  strings.TrimSpace(req.Name),
		Role:                  strings.ToLower(strings.TrimSpace(req.Role)),
		PhoneNumber:           strings.TrimSpace(req.PhoneNumber),
		ReportingManagerEmail: strings.TrimSpace(req.ReportingManagerEmail),
		ProfilePicReference:   strings.TrimSpace(req.ProfilePic),
	}
	if user.Name == "" {
		return nil, invalid("name", "is required")
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Role != models.RoleUser && user.Role != models.RoleAdmin {
		return nil, invalid("role", "must be user or admin")
	}

	existing, err := s.Repo.GetByNameAndRole(ctx, user.Name, user.Role)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	} else if existing == nil {
		return nil, invalid("password", "is required for new users")
	}

	if storage.IsDataURI(user.ProfilePicReference) {
		ref, err := s.storeProfilePic(ctx, user)
		if err != nil {
			return nil, err
		}
		user.ProfilePicReference = ref
	}

	if err := s.Repo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// storeProfilePic uploads an inline picture. Without a configured store the
// data URI is kept as is.
func (s *UserService) storeProfilePic(ctx context.Context, user *models.User) (string, error) {
	if s.Pictures == nil {
		return user.ProfilePicReference, nil
	}
	contentType, data, err := storage.ParseDataURI(user.ProfilePicReference)
	if err != nil {
		return "", invalid("profilePic", "must be a base64 data URI")
	}

	key := fmt.Sprintf("profile-pics/%s-%s%s", user.Role, uuid.NewString(), storage.Extension(contentType))
	ref, err := s.Pictures.Put(ctx, key, contentType, data)
	if err != nil {
		log.Printf("[Users] Profile picture upload for %s failed: %v", user.Name, err)
		return "", err
	}
	return ref, nil
}

// GetByName returns the user with the name, preferring the admin row.
func (s *UserService) GetByName(ctx context.Context, name string) (*models.User, error) {
	user, err := s.Repo.GetByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, name)
	}
	return user, err
}

func (s *UserService) Get(ctx context.Context, id int) (*models.User, error) {
	user, err := s.Repo.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return user, err
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// Delete removes every user row with the name and all of their visits.
func (s *UserService) Delete(ctx context.Context, name string) error {
	err := s.Repo.DeleteByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: user %q", ErrNotFound, name)
	}
	return err
}

// Login checks the password against the stored hash and issues a token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Password == "" {
		return nil, invalid("credentials", "name and password are required")
	}

	var user *models.User
	var err error
	if role := strings.ToLower(strings.TrimSpace(req.Role)); role != "" {
		user, err = s.Repo.GetByNameAndRole(ctx, name, role)
	} else {
		user, err = s.Repo.GetByName(ctx, name)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrUnauthorized
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}
