package models

// ReportSummary aggregates a collection of visits.
type ReportSummary struct {
	TotalVisits   int    `json:"totalVisits"`
	Completed     int    `json:"completed"`
	InProgress    int    `json:"inProgress"`
	TotalMinutes  int64  `json:"totalMinutes"`
	TotalDuration string `json:"totalDuration"`
	Mismatches    int    `json:"mismatches"`
}

// VisitReport is the payload returned to report and notification surfaces.
type VisitReport struct {
	UserName string        `json:"userName"`
	FromDate string        `json:"fromDate,omitempty"`
	ToDate   string        `json:"toDate,omitempty"`
	Summary  ReportSummary `json:"summary"`
	Visits   []*Visit      `json:"visits"`
}
