package mysqlstore

import (
	"context"
	"database/sql"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/repositories"
	"fieldvisit-backend/internal/timeutil"
)

type ClientStore struct {
	DB *sql.DB
}

func NewClientStore(db *sql.DB) *ClientStore {
	return &ClientStore{DB: db}
}

func (s *ClientStore) Upsert(ctx context.Context, c *models.Client) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO clients (name, company, location) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE company = VALUES(company), location = VALUES(location)`,
		c.Name, c.Company, c.Location)
	if err != nil {
		return err
	}
	return s.reload(ctx, c)
}

func (s *ClientStore) Create(ctx context.Context, c *models.Client) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO clients (name, company, location) VALUES (?, ?, ?)`, c.Name, c.Company, c.Location)
	if _, dup := duplicateKey(err); dup {
		return repositories.ErrDuplicate
	}
	if err != nil {
		return err
	}
	return s.reload(ctx, c)
}

func (s *ClientStore) reload(ctx context.Context, c *models.Client) error {
	err := s.DB.QueryRowContext(ctx, `SELECT id, created_at FROM clients WHERE name = ?`, c.Name).Scan(&c.ID, &c.CreatedAt)
	c.CreatedAt = c.CreatedAt.In(timeutil.IST)
	return err
}

func (s *ClientStore) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, company, location, created_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []*models.Client{}
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Company, &c.Location, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.In(timeutil.IST)
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}

func (s *ClientStore) Delete(ctx context.Context, name string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM clients WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}
