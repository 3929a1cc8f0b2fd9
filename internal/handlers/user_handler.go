package handlers

import (
	"encoding/json"
	"net/http"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/services"
	"fieldvisit-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	Service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{Service: service}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, users)
}

// GetUser answers {"exists": false} rather than 404 for an unknown name.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.GetByName(r.Context(), mux.Vars(r)["name"])
	if isNotFound(err) {
		utils.JSON(w, http.StatusOK, map[string]interface{}{"exists": false})
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"exists": true, "user": user})
}

func (h *UserHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Service.Upsert(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "User and their visits deleted successfully"})
}
