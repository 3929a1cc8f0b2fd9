// Package mysqlstore implements the visit, user, client and setting stores
// on MySQL through database/sql and go-sql-driver/mysql. Timestamps are
// stored as UTC DATETIME(6) and returned in IST.
package mysqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"strings"

	"fieldvisit-backend/internal/repositories"

	"github.com/go-sql-driver/mysql"
)

//go:embed schema.sql
var schema string

const (
	errDuplicateEntry = 1062
	openVisitKey      = "visits_one_open_per_user"
)

// Migrate creates the tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mysql schema: %w", err)
		}
	}
	log.Println("[MySQL] Schema is up to date")
	return nil
}

// duplicateKey reports a 1062 error and the name of the violated key.
func duplicateKey(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != errDuplicateEntry {
		return "", false
	}
	// Message format: Duplicate entry 'x' for key 'table.key_name'
	key := myErr.Message
	if i := strings.LastIndex(key, "for key '"); i >= 0 {
		key = strings.TrimSuffix(key[i+len("for key '"):], "'")
	}
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	return key, true
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrNotFound
	}
	return err
}

func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
