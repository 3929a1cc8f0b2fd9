package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const visitColumns = `id, user_name, client_name, company_name,
	check_in_address, check_in_map_link, check_in_lat, check_in_lng, check_in_time,
	check_out_time, check_out_address, check_out_map_link, check_out_lat, check_out_lng,
	distance_meters, location_mismatch, created_at`

type VisitRepository struct {
	DB *pgxpool.Pool
}

func NewVisitRepository(db *pgxpool.Pool) *VisitRepository {
	return &VisitRepository{DB: db}
}

func scanVisit(row pgx.Row) (*models.Visit, error) {
	var v models.Visit
	var checkOutLat, checkOutLng *float64
	err := row.Scan(
		&v.ID, &v.UserName, &v.ClientName, &v.CompanyName,
		&v.CheckInAddress, &v.CheckInMapLink, &v.CheckInCoords.Latitude, &v.CheckInCoords.Longitude, &v.CheckInTime,
		&v.CheckOutTime, &v.CheckOutAddress, &v.CheckOutMapLink, &checkOutLat, &checkOutLng,
		&v.DistanceMeters, &v.LocationMismatch, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.CheckInTime = v.CheckInTime.In(timeutil.IST)
	v.CreatedAt = v.CreatedAt.In(timeutil.IST)
	if v.CheckOutTime != nil {
		t := v.CheckOutTime.In(timeutil.IST)
		v.CheckOutTime = &t
	}
	if checkOutLat != nil && checkOutLng != nil {
		v.CheckOutCoords = &models.Coordinates{Latitude: *checkOutLat, Longitude: *checkOutLng}
	}
	return &v, nil
}

func collectVisits(rows pgx.Rows) ([]*models.Visit, error) {
	defer rows.Close()

	visits := []*models.Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// Create inserts an open visit. The partial unique index on open visits turns
// a concurrent second check-in for the same user into ErrOpenVisitExists.
func (r *VisitRepository) Create(ctx context.Context, v *models.Visit) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO visits (user_name, client_name, company_name, check_in_address, check_in_map_link,
			check_in_lat, check_in_lng, check_in_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		v.UserName, v.ClientName, v.CompanyName, v.CheckInAddress, v.CheckInMapLink,
		v.CheckInCoords.Latitude, v.CheckInCoords.Longitude, v.CheckInTime,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if pgErr, ok := uniqueViolation(err); ok && pgErr.ConstraintName == openVisitConstraint {
			return ErrOpenVisitExists
		}
		return err
	}
	v.CreatedAt = v.CreatedAt.In(timeutil.IST)
	return nil
}

func (r *VisitRepository) Get(ctx context.Context, id int) (*models.Visit, error) {
	v, err := scanVisit(r.DB.QueryRow(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// GetOpenByUser returns the user's open visit, if any.
func (r *VisitRepository) GetOpenByUser(ctx context.Context, userName string) (*models.Visit, error) {
	v, err := scanVisit(r.DB.QueryRow(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE user_name = $1 AND check_out_time IS NULL`, userName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// Close performs the open -> closed transition. The update only matches an
// open row, so of two racing check-outs exactly one wins.
func (r *VisitRepository) Close(ctx context.Context, id int, co models.VisitCheckOut) (*models.Visit, error) {
	v, err := scanVisit(r.DB.QueryRow(ctx,
		`UPDATE visits SET
			check_out_time = $2,
			check_out_address = $3,
			check_out_map_link = $4,
			check_out_lat = $5,
			check_out_lng = $6,
			distance_meters = $7,
			location_mismatch = $8
		 WHERE id = $1 AND check_out_time IS NULL
		 RETURNING `+visitColumns,
		id, co.Time, co.Address, co.MapLink, co.Coords.Latitude, co.Coords.Longitude,
		co.DistanceMeters, co.LocationMismatch,
	))
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM visits WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrVisitClosed
}

func (r *VisitRepository) Delete(ctx context.Context, id int) error {
	result, err := r.DB.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns visits matching the filter, most recent check-in first.
func (r *VisitRepository) List(ctx context.Context, filter models.VisitFilter) ([]*models.Visit, error) {
	var conds []string
	var args []interface{}

	if filter.UserName != "" {
		args = append(args, filter.UserName)
		conds = append(conds, fmt.Sprintf("user_name = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("check_in_time >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("check_in_time <= $%d", len(args)))
	}

	query := `SELECT ` + visitColumns + ` FROM visits`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY check_in_time DESC, id DESC`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

// ListOpenBefore returns open visits checked in strictly before cutoff, oldest first.
func (r *VisitRepository) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]*models.Visit, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+visitColumns+` FROM visits
		 WHERE check_out_time IS NULL AND check_in_time < $1
		 ORDER BY check_in_time ASC, id ASC`, cutoff)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}
