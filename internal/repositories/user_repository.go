package repositories

import (
	"context"
	"errors"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, role, phone_number, password_hash, reporting_manager_email, profile_pic, created_at`

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.PhoneNumber, &u.PasswordHash,
		&u.ReportingManagerEmail, &u.ProfilePicReference, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.In(timeutil.IST)
	return &u, nil
}

// Upsert inserts the user or updates the row with the same (name, role).
// An empty PasswordHash keeps the stored hash.
func (r *UserRepository) Upsert(ctx context.Context, u *models.User) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO users (name, role, phone_number, password_hash, reporting_manager_email, profile_pic)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (name, role) DO UPDATE SET
			phone_number = EXCLUDED.phone_number,
			password_hash = CASE WHEN EXCLUDED.password_hash = '' THEN users.password_hash ELSE EXCLUDED.password_hash END,
			reporting_manager_email = EXCLUDED.reporting_manager_email,
			profile_pic = EXCLUDED.profile_pic
		 RETURNING id, created_at`,
		u.Name, u.Role, u.PhoneNumber, u.PasswordHash, u.ReportingManagerEmail, u.ProfilePicReference,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByNameAndRole(ctx context.Context, name, role string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = $1 AND role = $2`, name, role))
}

// GetByName returns the first user with the name, admins first.
func (r *UserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = $1 ORDER BY role ASC LIMIT 1`, name))
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteByName removes every user row with the name together with their visits.
func (r *UserRepository) DeleteByName(ctx context.Context, name string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM visits WHERE user_name = $1`, name); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
