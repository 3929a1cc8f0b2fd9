package services

import (
	"context"
	"time"

	"fieldvisit-backend/internal/models"
)

// The storage capabilities the services need. Each backend (PostgreSQL,
// MySQL, in-memory) implements them and reports failures with the sentinel
// errors of the repositories package.

type VisitStore interface {
	Create(ctx context.Context, v *models.Visit) error
	Get(ctx context.Context, id int) (*models.Visit, error)
	GetOpenByUser(ctx context.Context, userName string) (*models.Visit, error)
	Close(ctx context.Context, id int, co models.VisitCheckOut) (*models.Visit, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter models.VisitFilter) ([]*models.Visit, error)
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]*models.Visit, error)
}

type ClientStore interface {
	Upsert(ctx context.Context, c *models.Client) error
	Create(ctx context.Context, c *models.Client) error
	List(ctx context.Context) ([]*models.Client, error)
	Delete(ctx context.Context, name string) error
}

type SettingStore interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	List(ctx context.Context) ([]*models.SystemSetting, error)
	Upsert(ctx context.Context, key string, value string) error
}

type UserStore interface {
	Upsert(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id int) (*models.User, error)
	GetByNameAndRole(ctx context.Context, name, role string) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	DeleteByName(ctx context.Context, name string) error
}
