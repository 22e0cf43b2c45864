// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusDeveloping ProjectStatus = "developing"
	ProjectStatusDeployed   ProjectStatus = "deployed"
	ProjectStatusArchived   ProjectStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusDeveloping, ProjectStatusDeployed, ProjectStatusArchived:
		return true
	}
	return false
}

// ProjectType selects how the page is produced. NO_CODE pages come out of
// the built-in renderer, LOW_CODE pages are supplied by the user's repository.
type ProjectType string

const (
	ProjectTypeLowCode ProjectType = "LOW_CODE"
	ProjectTypeNoCode  ProjectType = "NO_CODE"
)

// Valid reports whether t is a known project type.
func (t ProjectType) Valid() bool {
	return t == ProjectTypeLowCode || t == ProjectTypeNoCode
}

// Field limits for user-editable project details.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
	MaxCategoryLength    = 100
)

// Project is the aggregate root owned by exactly one user. Configurations
// are nil until attached.
type Project struct {
	ID          uuid.UUID         `json:"id"`
	OwnerID     string            `json:"ownerId"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Status      ProjectStatus     `json:"status"`
	ProjectType ProjectType       `json:"projectType"`
	TemplateID  *uuid.UUID        `json:"templateId,omitempty"`
	AIModel     *AIModelConfig    `json:"aiModel,omitempty"`
	Deployment  *DeploymentConfig `json:"deployment,omitempty"`
	Revenue     *RevenueConfig    `json:"revenue,omitempty"`
	PageContent *PageContent      `json:"pageContent,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy so callers can derive a new state without
// touching the original.
func (p Project) Clone() Project {
	c := p
	if p.Description != nil {
		d := *p.Description
		c.Description = &d
	}
	if p.TemplateID != nil {
		id := *p.TemplateID
		c.TemplateID = &id
	}
	if p.AIModel != nil {
		m := p.AIModel.clone()
		c.AIModel = &m
	}
	if p.Deployment != nil {
		d := p.Deployment.clone()
		c.Deployment = &d
	}
	if p.Revenue != nil {
		r := p.Revenue.clone()
		c.Revenue = &r
	}
	if p.PageContent != nil {
		pc := *p.PageContent
		c.PageContent = &pc
	}
	return c
}

// IsNoCode reports whether the page is produced by the built-in renderer.
func (p *Project) IsNoCode() bool {
	return p.ProjectType == ProjectTypeNoCode
}

// HasPendingDeployment reports whether a deployment is currently in flight.
func (p *Project) HasPendingDeployment() bool {
	return p.Deployment != nil && p.Deployment.Status == DeploymentStatusPending
}

// ProjectDetails carries the user-editable descriptive fields.
type ProjectDetails struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// ValidateDetails trims and bounds the descriptive fields.
func ValidateDetails(d ProjectDetails) (ProjectDetails, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	if d.Name == "" {
		return d, invalid(KindInvalidProject, "name", "is required")
	}
	if utf8.RuneCountInString(d.Name) > MaxNameLength {
		return d, invalid(KindInvalidProject, "name", "must be at most %d characters", MaxNameLength)
	}
	if utf8.RuneCountInString(d.Category) > MaxCategoryLength {
		return d, invalid(KindInvalidProject, "category", "must be at most %d characters", MaxCategoryLength)
	}
	if d.Description != nil {
		desc := strings.TrimSpace(*d.Description)
		if utf8.RuneCountInString(desc) > MaxDescriptionLength {
			return d, invalid(KindInvalidProject, "description", "must be at most %d characters", MaxDescriptionLength)
		}
		if desc == "" {
			d.Description = nil
		} else {
			d.Description = &desc
		}
	}
	return d, nil
}

// ProjectFilter narrows an owner's project listing. Zero values match all.
type ProjectFilter struct {
	Status      ProjectStatus
	ProjectType ProjectType
	Category    string
}

// Page is an offset pagination window.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps the window to sane bounds.
func (pg Page) Normalize() Page {
	if pg.Limit <= 0 {
		pg.Limit = DefaultPageLimit
	}
	if pg.Limit > MaxPageLimit {
		pg.Limit = MaxPageLimit
	}
	if pg.Offset < 0 {
		pg.Offset = 0
	}
	return pg
}
