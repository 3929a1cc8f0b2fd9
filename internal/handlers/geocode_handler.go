package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"fieldvisit-backend/internal/geocode"
	"fieldvisit-backend/internal/services"
	"fieldvisit-backend/pkg/utils"
)

type GeocodeHandler struct {
	Geocoder geocode.Geocoder
}

func NewGeocodeHandler(geocoder geocode.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{Geocoder: geocoder}
}

// Reverse handles GET /api/geocode?lat=&lng=
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		utils.Error(w, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}
	if !services.ValidCoordinates(lat, lng) {
		utils.Error(w, http.StatusBadRequest, "Latitude must be within ±90 and longitude within ±180")
		return
	}

	address, err := h.Geocoder.ReverseGeocode(r.Context(), lat, lng)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"address": address})
}

// Forward handles GET /api/geocode-forward?address=
func (h *GeocodeHandler) Forward(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		utils.Error(w, http.StatusBadRequest, "Address is required")
		return
	}

	location, err := h.Geocoder.ForwardGeocode(r.Context(), address)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, location)
}
