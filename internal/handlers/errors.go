package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"fieldvisit-backend/internal/geocode"
	"fieldvisit-backend/internal/services"
	"fieldvisit-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// writeServiceError maps service and geocoding errors to status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *services.ValidationError
	var geoErr *geocode.ServiceError

	switch {
	case errors.As(err, &validation):
		utils.JSON(w, http.StatusBadRequest, map[string]string{
			"error": validation.Error(),
			"field": validation.Field,
		})
	case errors.Is(err, services.ErrValidation):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.Error(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInvalidState):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, geocode.ErrNoResult):
		utils.Error(w, http.StatusNotFound, "No results found for the given location")
	case errors.As(err, &geoErr):
		log.Printf("[Geocode] %s %s: %v", r.Method, r.URL.Path, err)
		utils.Error(w, http.StatusBadGateway, geoErr.Error())
	default:
		log.Printf("[HTTP] %s %s failed: %v", r.Method, r.URL.Path, err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil && id > 0
}
