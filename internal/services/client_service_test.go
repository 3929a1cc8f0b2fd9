package services

import (
	"context"
	"errors"
	"testing"

	"fieldvisit-backend/internal/memstore"
	"fieldvisit-backend/internal/models"
)

func TestClientService(t *testing.T) {
	svc := NewClientService(memstore.New().Clients())
	ctx := context.Background()

	if _, err := svc.Create(ctx, models.CreateClientRequest{Name: "  "}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank name err = %v", err)
	}

	c, err := svc.Create(ctx, models.CreateClientRequest{Name: "Acme", Company: "Acme Corp"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == 0 {
		t.Error("id not assigned")
	}
	if _, err := svc.Create(ctx, models.CreateClientRequest{Name: "Acme"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate err = %v, want ErrConflict", err)
	}

	if err := svc.Delete(ctx, "Acme"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "Acme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("clients = %+v", list)
	}
}
