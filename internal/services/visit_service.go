package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fieldvisit-backend/internal/events"
	"fieldvisit-backend/internal/geocode"
	"fieldvisit-backend/internal/metrics"
	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/repositories"
	"fieldvisit-backend/internal/timeutil"
)

// AllUsers in a visit query disables the user filter.
const AllUsers = "all"

// VisitQuery is the caller-facing filter for ListVisits. Dates are YYYY-MM-DD
// calendar days in IST and both bounds are inclusive.
type VisitQuery struct {
	UserName string
	FromDate string
	ToDate   string
}

type VisitService struct {
	Visits   VisitStore
	Clients  ClientStore
	Settings *SystemSettingService
	Geocoder geocode.Geocoder // optional, fills in missing addresses
	Events   events.Publisher

	now func() time.Time
}

func NewVisitService(visits VisitStore, clients ClientStore, settings *SystemSettingService,
	geocoder geocode.Geocoder, publisher events.Publisher) *VisitService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &VisitService{
		Visits:   visits,
		Clients:  clients,
		Settings: settings,
		Geocoder: geocoder,
		Events:   publisher,
		now:      timeutil.Now,
	}
}

// SetClock replaces the clock used for check-in and check-out times.
func (s *VisitService) SetClock(now func() time.Time) {
	s.now = now
}

// MapLink is the map URL derived for coordinates when the device sent none.
func MapLink(c models.Coordinates) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%v,%v", c.Latitude, c.Longitude)
}

func coordinatesFrom(lat, lng *float64) (models.Coordinates, error) {
	if lat == nil {
		return models.Coordinates{}, invalid("latitude", "is required")
	}
	if lng == nil {
		return models.Coordinates{}, invalid("longitude", "is required")
	}
	if !ValidCoordinates(*lat, *lng) {
		return models.Coordinates{}, invalid("coordinates", "latitude must be within ±90 and longitude within ±180")
	}
	return models.Coordinates{Latitude: *lat, Longitude: *lng}, nil
}

// resolveAddress reverse geocodes when the device did not send an address.
// Geocoding errors are returned unchanged.
func (s *VisitService) resolveAddress(ctx context.Context, address string, c models.Coordinates) (string, error) {
	address = strings.TrimSpace(address)
	if address != "" || s.Geocoder == nil {
		return address, nil
	}
	return s.Geocoder.ReverseGeocode(ctx, c.Latitude, c.Longitude)
}

// CheckIn opens a visit for the user. A second check-in while a visit is open
// fails with ErrConflict.
func (s *VisitService) CheckIn(ctx context.Context, req models.CheckInRequest) (*models.CheckInResult, error) {
	userName := strings.TrimSpace(req.UserName)
	clientName := strings.TrimSpace(req.ClientName)
	if userName == "" {
		return nil, invalid("userName", "is required")
	}
	if clientName == "" {
		return nil, invalid("clientName", "is required")
	}
	coords, err := coordinatesFrom(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	address, err := s.resolveAddress(ctx, req.CheckInAddress, coords)
	if err != nil {
		return nil, err
	}
	mapLink := strings.TrimSpace(req.CheckInMapLink)
	if mapLink == "" {
		mapLink = MapLink(coords)
	}

	visit := &models.Visit{
		UserName:       userName,
		ClientName:     clientName,
		CompanyName:    strings.TrimSpace(req.CompanyName),
		CheckInAddress: address,
		CheckInMapLink: mapLink,
		CheckInCoords:  coords,
		CheckInTime:    s.now(),
	}

	if err := s.Visits.Create(ctx, visit); err != nil {
		if errors.Is(err, repositories.ErrOpenVisitExists) {
			metrics.VisitConflicts.WithLabelValues("open_visit_exists").Inc()
			return nil, fmt.Errorf("%w: %s already has an open visit", ErrConflict, userName)
		}
		return nil, err
	}
	metrics.VisitTransitions.WithLabelValues("check_in").Inc()

	result := &models.CheckInResult{Visit: visit}

	// The client record is a cache of the last check-in; the visit stands without it.
	client := &models.Client{Name: clientName, Company: visit.CompanyName, Location: address}
	if err := s.Clients.Upsert(ctx, client); err != nil {
		log.Printf("[Visits] Client cache update for %q failed after check-in %d: %v", clientName, visit.ID, err)
		result.Warning = "Visit saved but client details could not be updated"
	}

	s.publish(ctx, events.VisitCheckedIn, visit)
	return result, nil
}

// CheckOut closes an open visit, computing the displacement from the
// check-in position against the current distance threshold.
func (s *VisitService) CheckOut(ctx context.Context, id int, req models.CheckOutRequest) (*models.Visit, error) {
	coords, err := coordinatesFrom(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	visit, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visit.IsOpen() {
		metrics.VisitConflicts.WithLabelValues("already_closed").Inc()
		return nil, fmt.Errorf("%w: visit %d is already checked out", ErrInvalidState, id)
	}

	threshold, err := s.Settings.DistanceThreshold(ctx)
	if err != nil {
		return nil, err
	}

	address, err := s.resolveAddress(ctx, req.CheckOutAddress, coords)
	if err != nil {
		return nil, err
	}
	mapLink := strings.TrimSpace(req.CheckOutMapLink)
	if mapLink == "" {
		mapLink = MapLink(coords)
	}

	distance := Haversine(visit.CheckInCoords, coords)
	co := models.VisitCheckOut{
		Time:             s.now(),
		Address:          address,
		MapLink:          mapLink,
		Coords:           coords,
		DistanceMeters:   distance,
		LocationMismatch: IsLocationMismatch(distance, threshold),
	}

	closed, err := s.Visits.Close(ctx, id, co)
	switch {
	case errors.Is(err, repositories.ErrVisitClosed):
		metrics.VisitConflicts.WithLabelValues("already_closed").Inc()
		return nil, fmt.Errorf("%w: visit %d is already checked out", ErrInvalidState, id)
	case errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("%w: visit %d", ErrNotFound, id)
	case err != nil:
		return nil, err
	}

	metrics.VisitTransitions.WithLabelValues("check_out").Inc()
	metrics.CheckOutDistance.Observe(distance)
	if closed.LocationMismatch {
		metrics.LocationMismatches.Inc()
		log.Printf("[Visits] Location mismatch on visit %d for %s: %.0fm > %dm",
			closed.ID, closed.UserName, distance, threshold)
	}

	s.publish(ctx, events.VisitCheckedOut, closed)
	return closed, nil
}

// Delete removes a visit in any state.
func (s *VisitService) Delete(ctx context.Context, id int) error {
	visit, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Visits.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: visit %d", ErrNotFound, id)
		}
		return err
	}
	metrics.VisitTransitions.WithLabelValues("delete").Inc()
	s.publish(ctx, events.VisitDeleted, visit)
	return nil
}

func (s *VisitService) Get(ctx context.Context, id int) (*models.Visit, error) {
	visit, err := s.Visits.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: visit %d", ErrNotFound, id)
	}
	return visit, err
}

// ActiveVisit returns the user's open visit or ErrNotFound.
func (s *VisitService) ActiveVisit(ctx context.Context, userName string) (*models.Visit, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, invalid("userName", "is required")
	}
	visit, err := s.Visits.GetOpenByUser(ctx, userName)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: no open visit for %s", ErrNotFound, userName)
	}
	return visit, err
}

// ListVisits returns matching visits, most recent check-in first.
func (s *VisitService) ListVisits(ctx context.Context, q VisitQuery) ([]*models.Visit, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.Visits.List(ctx, filter)
}

func (q VisitQuery) filter() (models.VisitFilter, error) {
	var filter models.VisitFilter

	if name := strings.TrimSpace(q.UserName); name != "" && !strings.EqualFold(name, AllUsers) {
		filter.UserName = name
	}
	if q.FromDate != "" {
		day, err := timeutil.ParseDay(q.FromDate)
		if err != nil {
			return filter, invalid("fromDate", "must be YYYY-MM-DD")
		}
		from := timeutil.StartOfDay(day)
		filter.From = &from
	}
	if q.ToDate != "" {
		day, err := timeutil.ParseDay(q.ToDate)
		if err != nil {
			return filter, invalid("toDate", "must be YYYY-MM-DD")
		}
		to := timeutil.EndOfDay(day)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, invalid("toDate", "must not be before fromDate")
	}
	return filter, nil
}

// PendingCheckouts lists open visits checked in more than reminderMinutes
// ago, oldest first.
func (s *VisitService) PendingCheckouts(ctx context.Context, reminderMinutes int) ([]*models.Visit, error) {
	if reminderMinutes < MinReminderMinutes || reminderMinutes > MaxReminderMinutes {
		return nil, invalid("reminderMinutes",
			fmt.Sprintf("must be between %d and %d", MinReminderMinutes, MaxReminderMinutes))
	}
	cutoff := s.now().Add(-time.Duration(reminderMinutes) * time.Minute)
	return s.Visits.ListOpenBefore(ctx, cutoff)
}

// PendingCheckoutsDefault uses the configured reminder window.
func (s *VisitService) PendingCheckoutsDefault(ctx context.Context) ([]*models.Visit, error) {
	minutes, err := s.Settings.ReminderMinutes(ctx)
	if err != nil {
		return nil, err
	}
	return s.PendingCheckouts(ctx, minutes)
}

// Report lists the matching visits together with their summary.
func (s *VisitService) Report(ctx context.Context, q VisitQuery) (*models.VisitReport, error) {
	visits, err := s.ListVisits(ctx, q)
	if err != nil {
		return nil, err
	}
	userName := strings.TrimSpace(q.UserName)
	if userName == "" {
		userName = AllUsers
	}
	return &models.VisitReport{
		UserName: userName,
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Summary:  Summarize(visits),
		Visits:   visits,
	}, nil
}

func (s *VisitService) publish(ctx context.Context, eventType string, v *models.Visit) {
	event := events.VisitEvent{
		Type:             eventType,
		VisitID:          v.ID,
		UserName:         v.UserName,
		ClientName:       v.ClientName,
		CompanyName:      v.CompanyName,
		CheckInTime:      v.CheckInTime,
		CheckOutTime:     v.CheckOutTime,
		LocationMismatch: v.LocationMismatch,
		OccurredAt:       s.now(),
	}
	if v.DistanceMeters != nil {
		event.DistanceMeters = *v.DistanceMeters
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		log.Printf("[Visits] Failed to publish %s for visit %d: %v", eventType, v.ID, err)
	}
}
