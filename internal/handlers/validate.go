// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"pagecraft/internal/models"
)

// parseFilter reads the list filters from the query string. Enum values
// are checked by the service.
func parseFilter(r *http.Request) models.ProjectFilter {
	q := r.URL.Query()
	return models.ProjectFilter{
		Status:      models.ProjectStatus(strings.TrimSpace(q.Get("status"))),
		ProjectType: models.ProjectType(strings.ToUpper(strings.TrimSpace(q.Get("projectType")))),
		Category:    strings.TrimSpace(q.Get("category")),
	}
}

// parsePage reads limit and offset. Missing values take the defaults,
// out-of-range ones are clamped.
func parsePage(r *http.Request) (models.Page, error) {
	q := r.URL.Query()
	var pg models.Page
	for _, f := range []struct {
		name string
		dst  *int
	}{{"limit", &pg.Limit}, {"offset", &pg.Offset}} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return pg, &models.ValidationError{Kind: models.KindInvalidPayload, Field: f.name, Message: "must be an integer"}
		}
		*f.dst = n
	}
	return pg.Normalize(), nil
}
