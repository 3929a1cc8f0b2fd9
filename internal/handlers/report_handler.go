package handlers

import (
	"net/http"

	"fieldvisit-backend/internal/services"
	"fieldvisit-backend/pkg/utils"
)

type ReportHandler struct {
	Visits *services.VisitService
}

func NewReportHandler(visits *services.VisitService) *ReportHandler {
	return &ReportHandler{Visits: visits}
}

// Summary handles GET /api/reports/summary with the same filters as the visit list.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	report, err := h.Visits.Report(r.Context(), visitQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
