package http

import (
	"net/http"

	"fieldvisit-backend/internal/handlers"
	"fieldvisit-backend/internal/middleware"
	"fieldvisit-backend/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Visits   *handlers.VisitHandler
	Clients  *handlers.ClientHandler
	Settings *handlers.SystemSettingHandler
	Geocode  *handlers.GeocodeHandler
	Reports  *handlers.ReportHandler
	Health   *handlers.HealthHandler
	Live     http.HandlerFunc // websocket feed, optional
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)

	adminOnly := func(fn http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireRole(models.RoleAdmin)(fn).ServeHTTP
	}

	// Public routes
	r.HandleFunc("/api/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Protected API routes - Visits
	visitsAPI := r.PathPrefix("/api/visits").Subrouter()
	visitsAPI.Use(authMiddleware.Authenticate)
	visitsAPI.HandleFunc("", h.Visits.ListVisits).Methods("GET")
	visitsAPI.HandleFunc("/pending-checkouts", h.Visits.PendingCheckouts).Methods("GET")
	visitsAPI.HandleFunc("/active/{userName}", h.Visits.ActiveVisit).Methods("GET")
	visitsAPI.HandleFunc("/check-in", h.Visits.CheckIn).Methods("POST")
	visitsAPI.HandleFunc("/{id:[0-9]+}", h.Visits.GetVisit).Methods("GET")
	visitsAPI.HandleFunc("/{id:[0-9]+}/check-out", h.Visits.CheckOut).Methods("POST")
	visitsAPI.HandleFunc("/{id:[0-9]+}", adminOnly(h.Visits.DeleteVisit)).Methods("DELETE")

	// Protected API routes - Users (admin only)
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.RequireRole(models.RoleAdmin))
	usersAPI.HandleFunc("", h.Users.ListUsers).Methods("GET")
	usersAPI.HandleFunc("", h.Users.UpsertUser).Methods("PUT", "POST")
	usersAPI.HandleFunc("/{name}", h.Users.GetUser).Methods("GET")
	usersAPI.HandleFunc("/{name}", h.Users.DeleteUser).Methods("DELETE")

	// Protected API routes - Clients
	clientsAPI := r.PathPrefix("/api/clients").Subrouter()
	clientsAPI.Use(authMiddleware.Authenticate)
	clientsAPI.HandleFunc("", h.Clients.ListClients).Methods("GET")
	clientsAPI.HandleFunc("", adminOnly(h.Clients.CreateClient)).Methods("POST")
	clientsAPI.HandleFunc("/{name}", adminOnly(h.Clients.DeleteClient)).Methods("DELETE")

	// Protected API routes - System Settings
	settingsAPI := r.PathPrefix("/api/settings").Subrouter()
	settingsAPI.Use(authMiddleware.Authenticate)
	settingsAPI.HandleFunc("", h.Settings.ListSettings).Methods("GET")
	settingsAPI.HandleFunc("/{key}", h.Settings.GetSetting).Methods("GET")
	settingsAPI.HandleFunc("/{key}", adminOnly(h.Settings.UpdateSetting)).Methods("PUT")

	// Protected API routes - Geocoding and reports
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)
	api.HandleFunc("/geocode", h.Geocode.Reverse).Methods("GET")
	api.HandleFunc("/geocode-forward", h.Geocode.Forward).Methods("GET")
	api.HandleFunc("/reports/summary", h.Reports.Summary).Methods("GET")

	// Live visit feed
	if h.Live != nil {
		r.Handle("/ws/visits", authMiddleware.Authenticate(h.Live)).Methods("GET")
	}

	return r
}
