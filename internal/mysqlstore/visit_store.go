package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/repositories"
	"fieldvisit-backend/internal/timeutil"
)

const visitColumns = `id, user_name, client_name, company_name,
	check_in_address, check_in_map_link, check_in_lat, check_in_lng, check_in_time,
	check_out_time, check_out_address, check_out_map_link, check_out_lat, check_out_lng,
	distance_meters, location_mismatch, created_at`

type VisitStore struct {
	DB *sql.DB
}

func NewVisitStore(db *sql.DB) *VisitStore {
	return &VisitStore{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (*models.Visit, error) {
	var v models.Visit
	var checkOutTime sql.NullTime
	var checkOutLat, checkOutLng, distance sql.NullFloat64
	err := row.Scan(
		&v.ID, &v.UserName, &v.ClientName, &v.CompanyName,
		&v.CheckInAddress, &v.CheckInMapLink, &v.CheckInCoords.Latitude, &v.CheckInCoords.Longitude, &v.CheckInTime,
		&checkOutTime, &v.CheckOutAddress, &v.CheckOutMapLink, &checkOutLat, &checkOutLng,
		&distance, &v.LocationMismatch, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.CheckInTime = v.CheckInTime.In(timeutil.IST)
	v.CreatedAt = v.CreatedAt.In(timeutil.IST)
	if checkOutTime.Valid {
		t := checkOutTime.Time.In(timeutil.IST)
		v.CheckOutTime = &t
	}
	if checkOutLat.Valid && checkOutLng.Valid {
		v.CheckOutCoords = &models.Coordinates{Latitude: checkOutLat.Float64, Longitude: checkOutLng.Float64}
	}
	if distance.Valid {
		d := distance.Float64
		v.DistanceMeters = &d
	}
	return &v, nil
}

func collectVisits(rows *sql.Rows) ([]*models.Visit, error) {
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

// Create inserts an open visit. The unique key on the generated
// open_user_name column rejects a second open visit for the user.
func (s *VisitStore) Create(ctx context.Context, v *models.Visit) error {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO visits (user_name, client_name, company_name, check_in_address, check_in_map_link,
			check_in_lat, check_in_lng, check_in_time, check_out_address, check_out_map_link)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', '')`,
		v.UserName, v.ClientName, v.CompanyName, v.CheckInAddress, v.CheckInMapLink,
		v.CheckInCoords.Latitude, v.CheckInCoords.Longitude, v.CheckInTime.UTC(),
	)
	if err != nil {
		if key, ok := duplicateKey(err); ok && key == openVisitKey {
			return repositories.ErrOpenVisitExists
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = int(id)
	if err := s.DB.QueryRowContext(ctx, `SELECT created_at FROM visits WHERE id = ?`, id).Scan(&v.CreatedAt); err != nil {
		return err
	}
	v.CreatedAt = v.CreatedAt.In(timeutil.IST)
	return nil
}

func (s *VisitStore) Get(ctx context.Context, id int) (*models.Visit, error) {
	v, err := scanVisit(s.DB.QueryRowContext(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = ?`, id))
	return v, notFound(err)
}

func (s *VisitStore) GetOpenByUser(ctx context.Context, userName string) (*models.Visit, error) {
	v, err := scanVisit(s.DB.QueryRowContext(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE open_user_name = ?`, userName))
	return v, notFound(err)
}

// Close runs the conditional update; zero affected rows means the visit is
// already closed or gone.
func (s *VisitStore) Close(ctx context.Context, id int, co models.VisitCheckOut) (*models.Visit, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE visits SET
			check_out_time = ?,
			check_out_address = ?,
			check_out_map_link = ?,
			check_out_lat = ?,
			check_out_lng = ?,
			distance_meters = ?,
			location_mismatch = ?
		 WHERE id = ? AND check_out_time IS NULL`,
		co.Time.UTC(), co.Address, co.MapLink, co.Coords.Latitude, co.Coords.Longitude,
		co.DistanceMeters, co.LocationMismatch, id,
	)
	if err != nil {
		return nil, err
	}

	err = rowsAffected(res)
	if errors.Is(err, repositories.ErrNotFound) {
		var exists bool
		if err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM visits WHERE id = ?)`, id).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			return nil, repositories.ErrVisitClosed
		}
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *VisitStore) Delete(ctx context.Context, id int) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM visits WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (s *VisitStore) List(ctx context.Context, filter models.VisitFilter) ([]*models.Visit, error) {
	var conds []string
	var args []any

	if filter.UserName != "" {
		conds = append(conds, "user_name = ?")
		args = append(args, filter.UserName)
	}
	if filter.From != nil {
		conds = append(conds, "check_in_time >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		conds = append(conds, "check_in_time <= ?")
		args = append(args, filter.To.UTC())
	}

	query := `SELECT ` + visitColumns + ` FROM visits`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY check_in_time DESC, id DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}

func (s *VisitStore) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]*models.Visit, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+visitColumns+` FROM visits
		 WHERE check_out_time IS NULL AND check_in_time < ?
		 ORDER BY check_in_time ASC, id ASC`, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	return collectVisits(rows)
}
