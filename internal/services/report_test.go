package services

import (
	"testing"
	"time"

	"fieldvisit-backend/internal/models"
)

func TestSummarize(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	end1 := start.Add(90*time.Minute + 59*time.Second)
	end2 := start.Add(45 * time.Minute)

	visits := []*models.Visit{
		{CheckInTime: start, CheckOutTime: &end1, LocationMismatch: true},
		{CheckInTime: start, CheckOutTime: &end2},
		{CheckInTime: start},
	}

	got := Summarize(visits)
	want := models.ReportSummary{
		TotalVisits:   3,
		Completed:     2,
		InProgress:    1,
		TotalMinutes:  135,
		TotalDuration: "2h 15m",
		Mismatches:    1,
	}
	if got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	if got.TotalVisits != 0 || got.TotalDuration != "0h 0m" {
		t.Errorf("Summarize(nil) = %+v", got)
	}
}

func TestVisitDuration(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	end := start.Add(61 * time.Minute)
	if got := VisitDuration(&models.Visit{CheckInTime: start, CheckOutTime: &end}); got != "1h 1m" {
		t.Errorf("duration = %q", got)
	}
	if got := VisitDuration(&models.Visit{CheckInTime: start}); got != "In Progress" {
		t.Errorf("open duration = %q", got)
	}
}
