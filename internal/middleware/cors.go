package middleware

import (
	"net/http"

	"fieldvisit-backend/internal/config"

	"github.com/rs/cors"
)

func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.Server.CorsAllowedOrigins
	allowAll := len(origins) == 0 || (len(origins) == 1 && origins[0] == "*")

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: !allowAll, // browsers reject credentials with a wildcard origin
		MaxAge:           300,       // 5 minutes
	})

	return c.Handler
}
