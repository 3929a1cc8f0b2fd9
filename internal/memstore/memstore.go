// Package memstore is an in-process implementation of the visit, user,
// client and setting stores. It backs the "memory" database driver and the
// service and handler tests. All stores share one mutex so the open-visit
// check and the insert happen atomically.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/repositories"
	"fieldvisit-backend/internal/timeutil"
)

type Store struct {
	mu sync.Mutex

	visits   map[int]*models.Visit
	users    map[int]*models.User
	clients  map[string]*models.Client
	settings map[string]*models.SystemSetting

	nextVisitID  int
	nextUserID   int
	nextClientID int
}

func New() *Store {
	return &Store{
		visits:   make(map[int]*models.Visit),
		users:    make(map[int]*models.User),
		clients:  make(map[string]*models.Client),
		settings: make(map[string]*models.SystemSetting),
	}
}

func (s *Store) Visits() *VisitStore     { return &VisitStore{s} }
func (s *Store) Users() *UserStore       { return &UserStore{s} }
func (s *Store) Clients() *ClientStore   { return &ClientStore{s} }
func (s *Store) Settings() *SettingStore { return &SettingStore{s} }

// Ping satisfies the health checker.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func copyVisit(v *models.Visit) *models.Visit {
	c := *v
	if v.CheckOutTime != nil {
		t := *v.CheckOutTime
		c.CheckOutTime = &t
	}
	if v.CheckOutCoords != nil {
		coords := *v.CheckOutCoords
		c.CheckOutCoords = &coords
	}
	if v.DistanceMeters != nil {
		d := *v.DistanceMeters
		c.DistanceMeters = &d
	}
	return &c
}

type VisitStore struct{ s *Store }

func (r *VisitStore) Create(ctx context.Context, v *models.Visit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.visits {
		if existing.UserName == v.UserName && existing.IsOpen() {
			return repositories.ErrOpenVisitExists
		}
	}

	r.s.nextVisitID++
	v.ID = r.s.nextVisitID
	v.CheckInTime = v.CheckInTime.In(timeutil.IST)
	v.CreatedAt = timeutil.Now()
	r.s.visits[v.ID] = copyVisit(v)
	return nil
}

func (r *VisitStore) Get(ctx context.Context, id int) (*models.Visit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.visits[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyVisit(v), nil
}

func (r *VisitStore) GetOpenByUser(ctx context.Context, userName string) (*models.Visit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, v := range r.s.visits {
		if v.UserName == userName && v.IsOpen() {
			return copyVisit(v), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *VisitStore) Close(ctx context.Context, id int, co models.VisitCheckOut) (*models.Visit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.visits[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if !v.IsOpen() {
		return nil, repositories.ErrVisitClosed
	}

	t := co.Time.In(timeutil.IST)
	coords := co.Coords
	distance := co.DistanceMeters
	v.CheckOutTime = &t
	v.CheckOutAddress = co.Address
	v.CheckOutMapLink = co.MapLink
	v.CheckOutCoords = &coords
	v.DistanceMeters = &distance
	v.LocationMismatch = co.LocationMismatch
	return copyVisit(v), nil
}

func (r *VisitStore) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.visits[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.visits, id)
	return nil
}

func (r *VisitStore) List(ctx context.Context, filter models.VisitFilter) ([]*models.Visit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	visits := []*models.Visit{}
	for _, v := range r.s.visits {
		if filter.UserName != "" && v.UserName != filter.UserName {
			continue
		}
		if filter.From != nil && v.CheckInTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && v.CheckInTime.After(*filter.To) {
			continue
		}
		visits = append(visits, copyVisit(v))
	}

	sort.Slice(visits, func(i, j int) bool {
		if !visits[i].CheckInTime.Equal(visits[j].CheckInTime) {
			return visits[i].CheckInTime.After(visits[j].CheckInTime)
		}
		return visits[i].ID > visits[j].ID
	})
	return visits, nil
}

func (r *VisitStore) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]*models.Visit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	visits := []*models.Visit{}
	for _, v := range r.s.visits {
		if v.IsOpen() && v.CheckInTime.Before(cutoff) {
			visits = append(visits, copyVisit(v))
		}
	}

	sort.Slice(visits, func(i, j int) bool {
		if !visits[i].CheckInTime.Equal(visits[j].CheckInTime) {
			return visits[i].CheckInTime.Before(visits[j].CheckInTime)
		}
		return visits[i].ID < visits[j].ID
	})
	return visits, nil
}

type UserStore struct{ s *Store }

func (r *UserStore) Upsert(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Name == u.Name && existing.Role == u.Role {
			u.ID = existing.ID
			u.CreatedAt = existing.CreatedAt
			if u.PasswordHash == "" {
				u.PasswordHash = existing.PasswordHash
			}
			stored := *u
			r.s.users[u.ID] = &stored
			return nil
		}
	}

	r.s.nextUserID++
	u.ID = r.s.nextUserID
	u.CreatedAt = timeutil.Now()
	stored := *u
	r.s.users[u.ID] = &stored
	return nil
}

func (r *UserStore) Get(ctx context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *UserStore) GetByNameAndRole(ctx context.Context, name, role string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Name == name && u.Role == role {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// GetByName prefers the admin row, matching the SQL stores' role ordering.
func (r *UserStore) GetByName(ctx context.Context, name string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *models.User
	for _, u := range r.s.users {
		if u.Name == name && (found == nil || u.Role < found.Role) {
			found = u
		}
	}
	if found == nil {
		return nil, repositories.ErrNotFound
	}
	c := *found
	return &c, nil
}

func (r *UserStore) List(ctx context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		c := *u
		users = append(users, &c)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].Role < users[j].Role
	})
	return users, nil
}

func (r *UserStore) DeleteByName(ctx context.Context, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := false
	for id, u := range r.s.users {
		if u.Name == name {
			delete(r.s.users, id)
			deleted = true
		}
	}
	if !deleted {
		return repositories.ErrNotFound
	}
	for id, v := range r.s.visits {
		if v.UserName == name {
			delete(r.s.visits, id)
		}
	}
	return nil
}

type ClientStore struct{ s *Store }

func (r *ClientStore) Upsert(ctx context.Context, c *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.clients[c.Name]; ok {
		existing.Company = c.Company
		existing.Location = c.Location
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		return nil
	}
	r.insertClient(c)
	return nil
}

func (r *ClientStore) Create(ctx context.Context, c *models.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[c.Name]; ok {
		return repositories.ErrDuplicate
	}
	r.insertClient(c)
	return nil
}

func (r *ClientStore) insertClient(c *models.Client) {
	r.s.nextClientID++
	c.ID = r.s.nextClientID
	c.CreatedAt = timeutil.Now()
	stored := *c
	r.s.clients[c.Name] = &stored
}

func (r *ClientStore) List(ctx context.Context) ([]*models.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	clients := make([]*models.Client, 0, len(r.s.clients))
	for _, c := range r.s.clients {
		cp := *c
		clients = append(clients, &cp)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].Name < clients[j].Name
	})
	return clients, nil
}

func (r *ClientStore) Delete(ctx context.Context, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[name]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.clients, name)
	return nil
}

type SettingStore struct{ s *Store }

func (r *SettingStore) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	setting, ok := r.s.settings[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *setting
	return &c, nil
}

func (r *SettingStore) List(ctx context.Context) ([]*models.SystemSetting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	settings := make([]*models.SystemSetting, 0, len(r.s.settings))
	for _, setting := range r.s.settings {
		c := *setting
		settings = append(settings, &c)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].SettingKey < settings[j].SettingKey })
	return settings, nil
}

func (r *SettingStore) Upsert(ctx context.Context, key string, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.settings[key] = &models.SystemSetting{
		SettingKey:   key,
		SettingValue: value,
		UpdatedAt:    timeutil.Now(),
	}
	return nil
}
