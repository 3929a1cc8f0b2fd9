package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fieldvisit-backend/internal/events"
	"fieldvisit-backend/internal/geocode"
	"fieldvisit-backend/internal/memstore"
	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/timeutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, timeutil.IST)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.VisitEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.VisitEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type failingClientStore struct {
	*memstore.ClientStore
}

func (failingClientStore) Upsert(context.Context, *models.Client) error {
	return errors.New("clients table locked")
}

type failingGeocoder struct{}

func (failingGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return "", &geocode.ServiceError{Status: "REQUEST_DENIED", Message: "key rejected"}
}

func (failingGeocoder) ForwardGeocode(context.Context, string) (*geocode.Location, error) {
	return nil, &geocode.ServiceError{Status: "REQUEST_DENIED", Message: "key rejected"}
}

type visitFixture struct {
	svc      *VisitService
	store    *memstore.Store
	settings *SystemSettingService
	events   *recordingPublisher
	clock    *fakeClock
}

func newVisitFixture(t *testing.T) *visitFixture {
	t.Helper()
	store := memstore.New()
	settings := NewSystemSettingService(store.Settings())
	publisher := &recordingPublisher{}
	clock := newFakeClock()

	svc := NewVisitService(store.Visits(), store.Clients(), settings, nil, publisher)
	svc.SetClock(clock.Now)
	return &visitFixture{svc: svc, store: store, settings: settings, events: publisher, clock: clock}
}

func float(v float64) *float64 { return &v }

func checkInAt(user string, lat, lng float64) models.CheckInRequest {
	return models.CheckInRequest{
		UserName:       user,
		ClientName:     "Acme",
		CompanyName:    "Acme Corp",
		CheckInAddress: "Anna Salai, Chennai",
		Latitude:       float(lat),
		Longitude:      float(lng),
	}
}

func checkOutAt(lat, lng float64) models.CheckOutRequest {
	return models.CheckOutRequest{
		CheckOutAddress: "Mount Road, Chennai",
		Latitude:        float(lat),
		Longitude:       float(lng),
	}
}
