// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"pagecraft/internal/models"
)

type templateList struct {
	Templates []models.Template `json:"templates"`
}

// ListTemplates handles GET /api/v1/templates.
func (a *API) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := a.templates.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Template{}
	}
	writeJSON(w, http.StatusOK, templateList{Templates: list})
}

// GetTemplate handles GET /api/v1/templates/{id}.
func (a *API) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	t, err := a.templates.FindByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
