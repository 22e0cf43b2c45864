// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API on top of the projects
// service. Handlers decode and check the request shape, call one service
// operation, and map its error to a status code; all domain rules live
// below them.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pagecraft/internal/ai"
	"pagecraft/internal/lifecycle"
	"pagecraft/internal/middleware"
	"pagecraft/internal/models"
	"pagecraft/internal/projects"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// ProjectService is the set of project operations the API exposes.
type ProjectService interface {
	CreateProject(ctx context.Context, ownerID string, in projects.CreateInput) (*models.Project, error)
	GetProject(ctx context.Context, ownerID string, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, ownerID string, f models.ProjectFilter, pg models.Page) ([]models.Project, error)
	DeleteProject(ctx context.Context, ownerID string, id uuid.UUID) error
	ApplyEvent(ctx context.Context, ownerID string, id uuid.UUID, ev lifecycle.Event, payload lifecycle.Payload) (*models.Project, error)
	ReportDeploymentResult(ctx context.Context, projectID uuid.UUID, deploymentID string, outcome models.DeploymentOutcome) (*models.Project, error)
	RenderPageContent(ctx context.Context, content models.PageContent, locale string) ([]byte, error)
	Preview(ctx context.Context, ownerID string, id uuid.UUID, locale string) ([]byte, error)
	Predict(ctx context.Context, ownerID string, id uuid.UUID, in ai.SampleInput) ([]ai.Prediction, error)
}

// TemplateCatalog lists starter templates.
type TemplateCatalog interface {
	List(ctx context.Context) ([]models.Template, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
}

// API groups the HTTP handlers.
type API struct {
	projects  ProjectService
	templates TemplateCatalog
}

func New(svc ProjectService, templates TemplateCatalog) *API {
	return &API{projects: svc, templates: templates}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("write json response", "error", err)
	}
}

func writeHTML(w http.ResponseWriter, html []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

// writeServiceError maps the domain error taxonomy onto HTTP.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := models.AsValidation(err); ok {
		middleware.WriteError(w, http.StatusUnprocessableEntity, "validation_failed", ve.Error(),
			map[string]string{"kind": string(ve.Kind), "field": ve.Field})
		return
	}
	var te *models.TransitionError
	if errors.As(err, &te) {
		details := map[string]string{"from": string(te.From), "event": te.Event}
		if te.Reason != "" {
			details["reason"] = te.Reason
		}
		middleware.WriteError(w, http.StatusConflict, "invalid_transition", te.Error(), details)
		return
	}
	if ae, ok := models.AsAdapter(err); ok {
		slog.Warn("adapter error", "path", r.URL.Path, "provider", ae.Provider, "op", ae.Op, "error", err)
		middleware.WriteError(w, http.StatusBadGateway, "adapter_failed", ae.Error(),
			map[string]any{"provider": ae.Provider, "temporary": ae.Temporary})
		return
	}

	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		middleware.WriteError(w, http.StatusConflict, "invalid_transition", err.Error(), nil)
	case errors.Is(err, models.ErrConcurrentModification):
		middleware.WriteError(w, http.StatusConflict, "concurrent_modification", "the project changed since it was read, reload and retry", nil)
	case errors.Is(err, models.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "not_found", "resource not found", nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "internal", "internal server error", nil)
	}
}

// decodeJSON reads a single JSON object into v and rejects unknown
// fields. Failures are reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &models.ValidationError{Kind: models.KindInvalidPayload, Field: "body", Message: err.Error()}
	}
	if dec.More() {
		return &models.ValidationError{Kind: models.KindInvalidPayload, Field: "body", Message: "unexpected trailing data"}
	}
	return nil
}

// pathID parses the {id} route parameter. A malformed id cannot name an
// existing resource, so it is reported as not found.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, models.ErrNotFound
	}
	return id, nil
}

// owner returns the authenticated owner or writes a 401.
func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
	}
	return id, ok
}
