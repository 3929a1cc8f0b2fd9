package repositories

import (
	"context"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/timeutil"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ClientRepository struct {
	DB *pgxpool.Pool
}

func NewClientRepository(db *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{DB: db}
}

// Upsert refreshes the cached company/location for the client name.
func (r *ClientRepository) Upsert(ctx context.Context, c *models.Client) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO clients (name, company, location)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET
			company = EXCLUDED.company,
			location = EXCLUDED.location
		 RETURNING id, created_at`,
		c.Name, c.Company, c.Location,
	).Scan(&c.ID, &c.CreatedAt)
}

// Create inserts a new client and reports ErrDuplicate for an existing name.
func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO clients (name, company, location) VALUES ($1, $2, $3) RETURNING id, created_at`,
		c.Name, c.Company, c.Location,
	).Scan(&c.ID, &c.CreatedAt)
	if _, ok := uniqueViolation(err); ok {
		return ErrDuplicate
	}
	return err
}

func (r *ClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, company, location, created_at FROM clients ORDER BY name`)
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

func (r *ClientRepository) Delete(ctx context.Context, name string) error {
	result, err := r.DB.Exec(ctx, `DELETE FROM clients WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
