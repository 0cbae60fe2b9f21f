// Package router provides HTTP routing configuration using Chi.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/certforge/keygen-ca/internal/api/handler"
	"github.com/certforge/keygen-ca/internal/api/middleware"
	"github.com/certforge/keygen-ca/internal/ca"
	"github.com/certforge/keygen-ca/internal/challenge"
)

// Config holds router configuration.
type Config struct {
	Version      string
	CA           *ca.CA
	Challenges   *challenge.Store
	ChallengeTTL time.Duration
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS)

	healthHandler := handler.NewHealthHandler(cfg.Version, func() bool {
		return cfg.CA != nil
	})
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	enrollHandler := handler.NewEnrollHandler(cfg.CA, cfg.Challenges, cfg.ChallengeTTL)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/challenge", enrollHandler.Challenge)
		r.Post("/enroll", enrollHandler.Enroll)
		r.Get("/certs/{serial}", enrollHandler.GetCert)
		r.Get("/ca", enrollHandler.GetCA)
	})

	return r
}
