// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router assembles the chi router: global middleware, the health
// check, the authenticated /api/v1 group, and the deployment callback.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"pagecraft/internal/handlers"
	"pagecraft/internal/middleware"
)

// Options carries what the routes need besides the handlers. Limiter and
// Ready are optional.
type Options struct {
	Auth           *middleware.Authenticator
	CallbackSecret string
	Limiter        *middleware.RateLimiter
	Ready          func(ctx context.Context) error
}

func New(api *handlers.API, opts Options) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "not_found", "no such route", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed here", nil)
	})

	r.Get("/health", healthHandler(opts.Ready))

	r.Route("/api/v1", func(r chi.Router) {
		// Hosting platforms authenticate with the shared secret, not a user token.
		r.With(middleware.RequireCallbackSecret(opts.CallbackSecret)).
			Post("/callbacks/deployments", api.DeploymentCallback)

		r.Group(func(r chi.Router) {
			r.Use(opts.Auth.Authenticate)
			if opts.Limiter != nil {
				r.Use(opts.Limiter.Middleware)
			}

			r.Get("/templates", api.ListTemplates)
			r.Get("/templates/{id}", api.GetTemplate)

			r.Post("/render", api.Render)

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", api.CreateProject)
				r.Get("/", api.ListProjects)
				r.Get("/{id}", api.GetProject)
				r.Delete("/{id}", api.DeleteProject)
				r.Post("/{id}/events", api.ApplyEvent)
				r.Post("/{id}/predict", api.Predict)
				r.Get("/{id}/preview", api.Preview)
			})
		})
	})

	return r
}

// healthHandler reports liveness, and readiness when a check is given.
func healthHandler(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				slog.Warn("readiness check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
