// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Template is a starter blueprint users can create a project from. The
// catalog is seeded at startup and read-only through the API.
type Template struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	ProjectType ProjectType  `json:"projectType"`
	ModelType   ModelType    `json:"modelType,omitempty"`
	Description string       `json:"description"`
	DefaultPage *PageContent `json:"defaultPage,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ValidateTemplate checks a catalog entry before it is stored. Only
// NO_CODE templates carry a default page, and it must pass the same
// checks as project page content.
func ValidateTemplate(t Template) (Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Category = strings.TrimSpace(t.Category)
	if t.Name == "" {
		return t, invalid(KindInvalidProject, "name", "is required")
	}
	if !t.ProjectType.Valid() {
		return t, invalid(KindInvalidProject, "projectType", "must be LOW_CODE or NO_CODE")
	}
	if t.ModelType != "" && !t.ModelType.Valid() {
		return t, invalid(KindInvalidModelConfig, "modelType", "unknown model type %q", t.ModelType)
	}
	if t.DefaultPage == nil {
		return t, nil
	}
	if t.ProjectType != ProjectTypeNoCode {
		return t, invalid(KindInvalidPageContent, "defaultPage", "is only allowed on NO_CODE templates")
	}
	page, err := ValidatePageContent(*t.DefaultPage)
	if err != nil {
		return t, err
	}
	t.DefaultPage = &page
	return t, nil
}
