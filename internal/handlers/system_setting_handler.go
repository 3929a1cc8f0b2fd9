package handlers

import (
	"encoding/json"
	"net/http"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/services"
	"fieldvisit-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type SystemSettingHandler struct {
	Service *services.SystemSettingService
}

func NewSystemSettingHandler(service *services.SystemSettingService) *SystemSettingHandler {
	return &SystemSettingHandler{Service: service}
}

// GetSetting returns {"key", "value": null} for an unset key.
func (h *SystemSettingHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	setting, err := h.Service.Get(r.Context(), key)
	if err != nil {
		if isNotFound(err) {
			utils.JSON(w, http.StatusOK, map[string]interface{}{"key": key, "value": nil})
			return
		}
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, setting)
}

func (h *SystemSettingHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, settings)
}

func (h *SystemSettingHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req models.UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.Set(r.Context(), key, req.SettingValue); err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Setting updated successfully"})
}
