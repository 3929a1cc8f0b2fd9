package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/repositories"
)

func TestCreateRejectsSecondOpenVisit(t *testing.T) {
	visits := New().Visits()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = visits.Create(ctx, &models.Visit{UserName: "bob", CheckInTime: time.Now()})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range results {
		if err == nil {
			created++
		} else if !errors.Is(err, repositories.ErrOpenVisitExists) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("created %d open visits, want 1", created)
	}
}

func TestCloseTransitionsOnce(t *testing.T) {
	visits := New().Visits()
	ctx := context.Background()

	v := &models.Visit{UserName: "alice", CheckInTime: time.Now()}
	if err := visits.Create(ctx, v); err != nil {
		t.Fatalf("create: %v", err)
	}

	first := models.VisitCheckOut{Time: time.Now(), Address: "first", DistanceMeters: 12}
	if _, err := visits.Close(ctx, v.ID, first); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err := visits.Close(ctx, v.ID, models.VisitCheckOut{Time: time.Now(), Address: "second"})
	if !errors.Is(err, repositories.ErrVisitClosed) {
		t.Fatalf("second close err = %v", err)
	}

	got, _ := visits.Get(ctx, v.ID)
	if got.CheckOutAddress != "first" || *got.DistanceMeters != 12 {
		t.Errorf("closed visit modified by second close: %+v", got)
	}

	// A new visit can be opened once the previous one is closed.
	if err := visits.Create(ctx, &models.Visit{UserName: "alice", CheckInTime: time.Now()}); err != nil {
		t.Errorf("create after close: %v", err)
	}
}

func TestReturnedVisitsAreCopies(t *testing.T) {
	visits := New().Visits()
	ctx := context.Background()

	v := &models.Visit{UserName: "alice", ClientName: "Acme", CheckInTime: time.Now()}
	visits.Create(ctx, v)

	got, _ := visits.Get(ctx, v.ID)
	got.ClientName = "changed"

	again, _ := visits.Get(ctx, v.ID)
	if again.ClientName != "Acme" {
		t.Errorf("stored visit mutated through returned pointer")
	}
}

func TestDeleteUserCascadesVisits(t *testing.T) {
	store := New()
	ctx := context.Background()

	store.Users().Upsert(ctx, &models.User{Name: "carol", Role: models.RoleUser, PasswordHash: "x"})
	store.Visits().Create(ctx, &models.Visit{UserName: "carol", CheckInTime: time.Now()})
	store.Visits().Create(ctx, &models.Visit{UserName: "dave", CheckInTime: time.Now()})

	if err := store.Users().DeleteByName(ctx, "carol"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	remaining, _ := store.Visits().List(ctx, models.VisitFilter{})
	if len(remaining) != 1 || remaining[0].UserName != "dave" {
		t.Errorf("remaining visits = %+v", remaining)
	}
	if err := store.Users().DeleteByName(ctx, "carol"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestUserUpsertKeepsPasswordHash(t *testing.T) {
	users := New().Users()
	ctx := context.Background()

	users.Upsert(ctx, &models.User{Name: "erin", Role: models.RoleUser, PasswordHash: "hash"})
	u := &models.User{Name: "erin", Role: models.RoleUser, PhoneNumber: "123"}
	users.Upsert(ctx, u)

	got, err := users.GetByNameAndRole(ctx, "erin", models.RoleUser)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PasswordHash != "hash" || got.PhoneNumber != "123" || got.ID != u.ID {
		t.Errorf("got %+v", got)
	}
	all, _ := users.List(ctx)
	if len(all) != 1 {
		t.Errorf("upsert created a duplicate: %d users", len(all))
	}
}

func TestClientCreateDuplicate(t *testing.T) {
	clients := New().Clients()
	ctx := context.Background()

	if err := clients.Create(ctx, &models.Client{Name: "Acme"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := clients.Create(ctx, &models.Client{Name: "Acme"}); !errors.Is(err, repositories.ErrDuplicate) {
		t.Errorf("duplicate err = %v", err)
	}
	if err := clients.Upsert(ctx, &models.Client{Name: "Acme", Company: "Acme Corp"}); err != nil {
		t.Errorf("upsert: %v", err)
	}
	list, _ := clients.List(ctx)
	if len(list) != 1 || list[0].Company != "Acme Corp" {
		t.Errorf("clients = %+v", list)
	}
}
