// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"

	"pagecraft/internal/ai"
	"pagecraft/internal/lifecycle"
	"pagecraft/internal/middleware"
	"pagecraft/internal/models"
	"pagecraft/internal/projects"
)

type projectList struct {
	Projects []models.Project `json:"projects"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type eventRequest struct {
	Event   lifecycle.Event `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type predictResponse struct {
	Predictions []ai.Prediction `json:"predictions"`
}

// CreateProject handles POST /api/v1/projects.
func (a *API) CreateProject(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var in projects.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := a.projects.CreateProject(r.Context(), ownerID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/projects/"+p.ID.String())
	writeJSON(w, http.StatusCreated, p)
}

// ListProjects handles GET /api/v1/projects.
func (a *API) ListProjects(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	filter := parseFilter(r)
	page, err := parsePage(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	list, err := a.projects.ListProjects(r.Context(), ownerID, filter, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Project{}
	}
	writeJSON(w, http.StatusOK, projectList{Projects: list, Limit: page.Limit, Offset: page.Offset})
}

// GetProject handles GET /api/v1/projects/{id}.
func (a *API) GetProject(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := a.projects.GetProject(r.Context(), ownerID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /api/v1/projects/{id}.
func (a *API) DeleteProject(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := a.projects.DeleteProject(r.Context(), ownerID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyEvent handles POST /api/v1/projects/{id}/events. Deployment
// outcomes are only accepted from hosting platforms through the callback.
func (a *API) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.Event.IsOutcome() {
		middleware.WriteError(w, http.StatusForbidden, "forbidden",
			"deployment outcomes are reported by the hosting platform", map[string]string{"event": string(req.Event)})
		return
	}
	payload, err := lifecycle.DecodePayload(req.Event, req.Payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := a.projects.ApplyEvent(r.Context(), ownerID, id, req.Event, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Predict handles POST /api/v1/projects/{id}/predict.
func (a *API) Predict(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in ai.SampleInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, err)
		return
	}
	preds, err := a.projects.Predict(r.Context(), ownerID, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if preds == nil {
		preds = []ai.Prediction{}
	}
	writeJSON(w, http.StatusOK, predictResponse{Predictions: preds})
}

// Preview handles GET /api/v1/projects/{id}/preview?locale=.
func (a *API) Preview(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	html, err := a.projects.Preview(r.Context(), ownerID, id, r.URL.Query().Get("locale"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeHTML(w, html)
}

// Render handles POST /api/v1/render?locale=. It renders the posted page
// content without storing anything.
func (a *API) Render(w http.ResponseWriter, r *http.Request) {
	var content models.PageContent
	if err := decodeJSON(w, r, &content); err != nil {
		writeServiceError(w, r, err)
		return
	}
	html, err := a.projects.RenderPageContent(r.Context(), content, r.URL.Query().Get("locale"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeHTML(w, html)
}
