package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/services"
	"fieldvisit-backend/pkg/utils"
)

type AuthHandler struct {
	Users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{Users: users}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Users.Login(r.Context(), req)
	if err != nil {
		log.Printf("[Auth] Failed login for %q from %s", req.Name, r.RemoteAddr)
		writeServiceError(w, r, err)
		return
	}
	log.Printf("[Auth] %s (%s) logged in", resp.User.Name, resp.User.Role)
	utils.JSON(w, http.StatusOK, resp)
}
