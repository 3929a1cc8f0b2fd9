package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/repositories"
)

type ClientService struct {
	Repo ClientStore
}

func NewClientService(repo ClientStore) *ClientService {
	return &ClientService{Repo: repo}
}

func (s *ClientService) List(ctx context.Context) ([]*models.Client, error) {
	return s.Repo.List(ctx)
}

// Create adds a client; an existing name is a conflict.
func (s *ClientService) Create(ctx context.Context, req models.CreateClientRequest) (*models.Client, error) {
	client := &models.Client{
		Name:     strings.TrimSpace(req.Name),
		Company:  strings.TrimSpace(req.Company),
		Location: strings.TrimSpace(req.Location),
	}
	if client.Name == "" {
		return nil, invalid("name", "is required")
	}

	if err := s.Repo.Create(ctx, client); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: client %q already exists", ErrConflict, client.Name)
		}
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Delete(ctx context.Context, name string) error {
	err := s.Repo.Delete(ctx, strings.TrimSpace(name))
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: client %q", ErrNotFound, name)
	}
	return err
}
