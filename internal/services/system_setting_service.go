package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/repositories"
)

const (
	SettingDistanceThreshold = "distanceThreshold"
	SettingReminderMinutes   = "checkoutReminderMinutes"

	DefaultDistanceThreshold = 500
	DefaultReminderMinutes   = 60

	MinDistanceThreshold = 1
	MaxDistanceThreshold = 100000
	MinReminderMinutes   = 1
	MaxReminderMinutes   = 720
)

type intSetting struct {
	def, min, max int
}

var knownSettings = map[string]intSetting{
	SettingDistanceThreshold: {DefaultDistanceThreshold, MinDistanceThreshold, MaxDistanceThreshold},
	SettingReminderMinutes:   {DefaultReminderMinutes, MinReminderMinutes, MaxReminderMinutes},
}

type SystemSettingService struct {
	Repo SettingStore
}

func NewSystemSettingService(repo SettingStore) *SystemSettingService {
	return &SystemSettingService{Repo: repo}
}

// Get returns the stored setting or ErrNotFound.
func (s *SystemSettingService) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	setting, err := s.Repo.Get(ctx, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: setting %q", ErrNotFound, key)
	}
	return setting, err
}

func (s *SystemSettingService) List(ctx context.Context) ([]*models.SystemSetting, error) {
	return s.Repo.List(ctx)
}

// Set upserts a setting. Recognised keys must hold an integer in range;
// anything else is stored as given.
func (s *SystemSettingService) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return invalid("key", "is required")
	}

	if bounds, ok := knownSettings[key]; ok {
		value = strings.TrimSpace(value)
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalid(key, "must be an integer")
		}
		if n < bounds.min || n > bounds.max {
			return invalid(key, fmt.Sprintf("must be between %d and %d", bounds.min, bounds.max))
		}
		value = strconv.Itoa(n)
	}

	return s.Repo.Upsert(ctx, key, value)
}

// DistanceThreshold is the mismatch threshold in meters, read at call time.
func (s *SystemSettingService) DistanceThreshold(ctx context.Context) (int, error) {
	return s.intValue(ctx, SettingDistanceThreshold)
}

// ReminderMinutes is the pending-checkout window in minutes.
func (s *SystemSettingService) ReminderMinutes(ctx context.Context) (int, error) {
	return s.intValue(ctx, SettingReminderMinutes)
}

// intValue falls back to the default for absent or malformed values. Storage
// errors are returned.
func (s *SystemSettingService) intValue(ctx context.Context, key string) (int, error) {
	bounds := knownSettings[key]

	setting, err := s.Repo.Get(ctx, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return bounds.def, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(strings.TrimSpace(setting.SettingValue))
	if err != nil || n < bounds.min || n > bounds.max {
		log.Printf("[Settings] Ignoring invalid %s value %q, using default %d", key, setting.SettingValue, bounds.def)
		return bounds.def, nil
	}
	return n, nil
}
