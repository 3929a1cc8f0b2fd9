package services

import (
	"context"
	"log"
	"sync"
	"time"

	"fieldvisit-backend/internal/events"
	"fieldvisit-backend/internal/models"
)

// ReminderService periodically publishes one checkout reminder for each
// visit left open longer than the configured reminder window.
type ReminderService struct {
	visits   *VisitService
	events   events.Publisher
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	reminded map[int]struct{}
}

func NewReminderService(visits *VisitService, publisher events.Publisher, interval time.Duration) *ReminderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReminderService{
		visits:   visits,
		events:   publisher,
		interval: interval,
		stopChan: make(chan struct{}),
		reminded: make(map[int]struct{}),
	}
}

// Start begins polling in the background
func (r *ReminderService) Start() {
	log.Printf("[Reminders] Starting checkout reminders (interval: %v)", r.interval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), r.interval)
				if _, err := r.RunOnce(ctx); err != nil {
					log.Printf("[Reminders] Poll failed: %v", err)
				}
				cancel()
			case <-r.stopChan:
				log.Println("[Reminders] Stopping checkout reminders...")
				return
			}
		}
	}()
}

// Stop stops the poller and waits for an in-flight poll to finish.
func (r *ReminderService) Stop() {
	close(r.stopChan)
	r.wg.Wait()
}

// RunOnce publishes reminders for newly overdue visits and returns how many
// were sent. A visit is reminded once for as long as it stays pending.
func (r *ReminderService) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.visits.PendingCheckoutsDefault(ctx)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := make(map[int]struct{}, len(pending))
	var due []*models.Visit
	for _, v := range pending {
		current[v.ID] = struct{}{}
		if _, done := r.reminded[v.ID]; !done {
			due = append(due, v)
		}
	}
	// Forget visits that were closed or deleted since the last poll.
	for id := range r.reminded {
		if _, ok := current[id]; !ok {
			delete(r.reminded, id)
		}
	}

	sent := 0
	for _, v := range due {
		event := events.VisitEvent{
			Type:        events.VisitCheckoutReminder,
			VisitID:     v.ID,
			UserName:    v.UserName,
			ClientName:  v.ClientName,
			CompanyName: v.CompanyName,
			CheckInTime: v.CheckInTime,
			OccurredAt:  r.visits.now(),
		}
		if err := r.events.Publish(ctx, event); err != nil {
			log.Printf("[Reminders] Reminder for visit %d not delivered: %v", v.ID, err)
			continue
		}
		r.reminded[v.ID] = struct{}{}
		sent++
	}
	if sent > 0 {
		log.Printf("[Reminders] Sent %d checkout reminder(s)", sent)
	}
	return sent, nil
}
