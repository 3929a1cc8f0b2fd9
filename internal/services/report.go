package services

import (
	"fmt"
	"time"

	"fieldvisit-backend/internal/models"
)

// Summarize reduces a visit collection to report totals. Duration is summed
// over completed visits and floored to whole minutes.
func Summarize(visits []*models.Visit) models.ReportSummary {
	var summary models.ReportSummary
	var total time.Duration

	for _, v := range visits {
		summary.TotalVisits++
		if v.CheckOutTime != nil {
			summary.Completed++
			total += v.Duration()
		}
		if v.LocationMismatch {
			summary.Mismatches++
		}
	}

	summary.InProgress = summary.TotalVisits - summary.Completed
	summary.TotalMinutes = int64(total / time.Minute)
	summary.TotalDuration = FormatMinutes(summary.TotalMinutes)
	return summary
}

// FormatMinutes renders minutes as "{h}h {m}m".
func FormatMinutes(minutes int64) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// VisitDuration renders a single visit's duration, or "In Progress" while open.
func VisitDuration(v *models.Visit) string {
	if v.CheckOutTime == nil {
		return "In Progress"
	}
	return FormatMinutes(int64(v.Duration() / time.Minute))
}
