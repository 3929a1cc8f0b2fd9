package mysqlstore

import (
	"context"
	"database/sql"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/timeutil"
)

const userColumns = `id, name, role, phone_number, password_hash, reporting_manager_email, profile_pic, created_at`

type UserStore struct {
	DB *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{DB: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.PhoneNumber, &u.PasswordHash,
		&u.ReportingManagerEmail, &u.ProfilePicReference, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	u.CreatedAt = u.CreatedAt.In(timeutil.IST)
	return &u, nil
}

// Upsert inserts or updates the row with the same (name, role); an empty
// PasswordHash keeps the stored hash.
func (s *UserStore) Upsert(ctx context.Context, u *models.User) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (name, role, phone_number, password_hash, reporting_manager_email, profile_pic)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
			phone_number = VALUES(phone_number),
			password_hash = IF(VALUES(password_hash) = '', password_hash, VALUES(password_hash)),
			reporting_manager_email = VALUES(reporting_manager_email),
			profile_pic = VALUES(profile_pic)`,
		u.Name, u.Role, u.PhoneNumber, u.PasswordHash, u.ReportingManagerEmail, u.ProfilePicReference,
	)
	if err != nil {
		return err
	}

	if err := s.DB.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE name = ? AND role = ?`, u.Name, u.Role,
	).Scan(&u.ID, &u.CreatedAt); err != nil {
		return err
	}
	u.CreatedAt = u.CreatedAt.In(timeutil.IST)
	return nil
}

func (s *UserStore) Get(ctx context.Context, id int) (*models.User, error) {
	return scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *UserStore) GetByNameAndRole(ctx context.Context, name, role string) (*models.User, error) {
	return scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = ? AND role = ?`, name, role))
}

func (s *UserStore) GetByName(ctx context.Context, name string) (*models.User, error) {
	return scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = ? ORDER BY role ASC LIMIT 1`, name))
}

func (s *UserStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, role`)
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

// DeleteByName removes the user rows and their visits in one transaction.
func (s *UserStore) DeleteByName(ctx context.Context, name string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if err := rowsAffected(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM visits WHERE user_name = ?`, name); err != nil {
		return err
	}
	return tx.Commit()
}
