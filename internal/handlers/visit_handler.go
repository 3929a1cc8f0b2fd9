package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fieldvisit-backend/internal/middleware"
	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/services"
	"fieldvisit-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type VisitHandler struct {
	Service *services.VisitService
}

func NewVisitHandler(service *services.VisitService) *VisitHandler {
	return &VisitHandler{Service: service}
}

func visitQuery(r *http.Request) services.VisitQuery {
	q := r.URL.Query()
	return services.VisitQuery{
		UserName: q.Get("userName"),
		FromDate: q.Get("fromDate"),
		ToDate:   q.Get("toDate"),
	}
}

// ListVisits handles GET /api/visits?userName=&fromDate=&toDate=
func (h *VisitHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := h.Service.ListVisits(r.Context(), visitQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) GetVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid visit ID")
		return
	}
	visit, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, visit)
}

func (h *VisitHandler) ActiveVisit(w http.ResponseWriter, r *http.Request) {
	visit, err := h.Service.ActiveVisit(r.Context(), mux.Vars(r)["userName"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, visit)
}

// PendingCheckouts uses the reminderMinutes query parameter when present and
// the configured window otherwise.
func (h *VisitHandler) PendingCheckouts(w http.ResponseWriter, r *http.Request) {
	var visits []*models.Visit
	var err error

	if raw := r.URL.Query().Get("reminderMinutes"); raw != "" {
		minutes, convErr := strconv.Atoi(raw)
		if convErr != nil {
			utils.Error(w, http.StatusBadRequest, "reminderMinutes must be an integer")
			return
		}
		visits, err = h.Service.PendingCheckouts(r.Context(), minutes)
	} else {
		visits, err = h.Service.PendingCheckoutsDefault(r.Context())
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req models.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserName == "" {
		req.UserName, _ = middleware.GetNameFromContext(r.Context())
	}

	result, err := h.Service.CheckIn(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, result)
}

func (h *VisitHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid visit ID")
		return
	}

	var req models.CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	visit, err := h.Service.CheckOut(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, visit)
}

func (h *VisitHandler) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid visit ID")
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Visit deleted successfully"})
}
