// Package repositories holds the PostgreSQL implementations of the storage
// layer. The sentinel errors below are shared by every storage backend so the
// service layer can translate them without knowing which engine is in use.
package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique key.
var ErrDuplicate = errors.New("duplicate record")

// ErrOpenVisitExists is returned when inserting a second open visit for a user.
var ErrOpenVisitExists = errors.New("user already has an open visit")

// ErrVisitClosed is returned when the conditional check-out update matched no
// open row for an existing visit.
var ErrVisitClosed = errors.New("visit already checked out")

const (
	pgUniqueViolation   = "23505"
	openVisitConstraint = "visits_one_open_per_user"
)

func uniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr, true
	}
	return nil, false
}
