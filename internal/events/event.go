// Package events defines the visit lifecycle messages published to the
// message broker and to live admin clients.
package events

import (
	"context"
	"log"
	"time"
)

const (
	VisitCheckedIn        = "visit.checked_in"
	VisitCheckedOut       = "visit.checked_out"
	VisitDeleted          = "visit.deleted"
	VisitCheckoutReminder = "visit.checkout_reminder"
)

// VisitEvent carries enough of the visit for downstream consumers to notify
// or log without querying the primary database.
type VisitEvent struct {
	Type             string     `json:"type"`
	VisitID          int        `json:"visitId"`
	UserName         string     `json:"userName"`
	ClientName       string     `json:"clientName,omitempty"`
	CompanyName      string     `json:"companyName,omitempty"`
	CheckInTime      time.Time  `json:"checkInTime"`
	CheckOutTime     *time.Time `json:"checkOutTime,omitempty"`
	DistanceMeters   float64    `json:"distanceMeters,omitempty"`
	LocationMismatch bool       `json:"locationMismatch"`
	OccurredAt       time.Time  `json:"occurredAt"`
}

// Publisher delivers visit events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event VisitEvent) error
}

// Multi fans an event out to every publisher and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event VisitEvent) error {
	var firstErr error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			log.Printf("[Events] %s publish via %T failed: %v", event.Type, p, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, VisitEvent) error { return nil }
