/**
 * @description
 * This file sets up the HTTP router for the card service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS, and authentication, and maps routes to handlers.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Ghavvvo/pulpy/internal/app"
)

// NewRouter creates a new Chi router and registers the card service routes.
func NewRouter(h *Handler, tokens *app.TokenManager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Card service is healthy"))
	})

	// Public routes
	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/login", h.handleLogin)
	r.Get("/p/{handle}", h.handlePublicProfile)

	// The dashboard guard does its own auth check so it can redirect instead
	// of rejecting.
	r.Get("/{handle}/dashboard", h.handleDashboard)

	// Protected routes that require a valid session token
	r.Group(func(r chi.Router) {
		r.Use(SessionAuthMiddleware(tokens))

		r.Get("/me", h.handleMe)
		r.Put("/me/profile", h.handleUpdateProfile)
		r.Post("/me/upgrade", h.handleUpgrade)
	})

	return r
}
