// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package projects is the orchestrator behind every project operation.
// It loads a project, runs the lifecycle state machine, calls the
// external adapter the resulting Effect asks for, and writes the new
// state back with an optimistic compare-and-swap. Lifecycle events are
// published and cached previews invalidated only after a write commits.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pagecraft/internal/ai"
	"pagecraft/internal/deploy"
	"pagecraft/internal/events"
	"pagecraft/internal/models"
)

// Repository persists projects. Update must fail with
// models.ErrConcurrentModification when the stored updatedAt differs
// from expectedUpdatedAt, and with models.ErrNotFound when no live row
// exists.
type Repository interface {
	Create(ctx context.Context, p *models.Project) error
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, expectedUpdatedAt time.Time, p *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID string, f models.ProjectFilter, pg models.Page) ([]models.Project, error)
	ListPendingDeployments(ctx context.Context, limit int) ([]models.Project, error)
}

// TemplateCatalog looks up starter templates.
type TemplateCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
}

// ModelHost verifies and runs AI models.
type ModelHost interface {
	ValidateModel(ctx context.Context, cfg models.AIModelConfig) error
	Predict(ctx context.Context, cfg models.AIModelConfig, in ai.SampleInput) ([]ai.Prediction, error)
}

// Deployer starts builds on a hosting platform.
type Deployer interface {
	StartDeployment(ctx context.Context, req deploy.Request) (deploy.Handle, error)
}

// PublisherVerifier confirms an ad network publisher id.
type PublisherVerifier interface {
	VerifyPublisherID(ctx context.Context, publisherID string) error
}

// PreviewCache holds rendered previews. Implementations are best effort.
type PreviewCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, html []byte)
	InvalidateProject(ctx context.Context, projectID uuid.UUID)
}

// SnapshotStore publishes rendered NO_CODE pages for hosting providers.
type SnapshotStore interface {
	UploadPage(ctx context.Context, projectID uuid.UUID, html []byte) (string, error)
	DeleteURL(ctx context.Context, url string) error
}

// Deps wires the service. Cache and Snapshots are optional; Events
// defaults to events.Discard and Now to time.Now.
type Deps struct {
	Projects   Repository
	Templates  TemplateCatalog
	Models     ModelHost
	Deployer   Deployer
	Publishers PublisherVerifier
	Events     events.Publisher
	Cache      PreviewCache
	Snapshots  SnapshotStore
	Now        func() time.Time
}

// Service implements the project operations. It holds no mutable state
// of its own and is safe for concurrent use.
type Service struct {
	repo       Repository
	templates  TemplateCatalog
	models     ModelHost
	deployer   Deployer
	publishers PublisherVerifier
	events     events.Publisher
	cache      PreviewCache
	snapshots  SnapshotStore
	now        func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		repo:       d.Projects,
		templates:  d.Templates,
		models:     d.Models,
		deployer:   d.Deployer,
		publishers: d.Publishers,
		events:     d.Events,
		cache:      d.Cache,
		snapshots:  d.Snapshots,
		now:        d.Now,
	}
	if s.events == nil {
		s.events = events.Discard{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateInput is the data needed to create a project. ProjectType may be
// omitted when TemplateID names a template, which then supplies it.
type CreateInput struct {
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	Category    string             `json:"category,omitempty"`
	ProjectType models.ProjectType `json:"projectType,omitempty"`
	TemplateID  *uuid.UUID         `json:"templateId,omitempty"`
}

// CreateProject validates in and stores a new draft project owned by
// ownerID.
func (s *Service) CreateProject(ctx context.Context, ownerID string, in CreateInput) (*models.Project, error) {
	if ownerID == "" {
		return nil, &models.ValidationError{Kind: models.KindInvalidProject, Field: "ownerId", Message: "is required"}
	}
	details, err := models.ValidateDetails(models.ProjectDetails{Name: in.Name, Description: in.Description, Category: in.Category})
	if err != nil {
		return nil, err
	}

	pt := in.ProjectType
	if in.TemplateID != nil {
		tmpl, err := s.templates.FindByID(ctx, *in.TemplateID)
		if errors.Is(err, models.ErrNotFound) {
			return nil, &models.ValidationError{Kind: models.KindInvalidProject, Field: "templateId", Message: "unknown template"}
		}
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
		if pt == "" {
			pt = tmpl.ProjectType
		} else if pt != tmpl.ProjectType {
			return nil, &models.ValidationError{Kind: models.KindInvalidProject, Field: "projectType", Message: "does not match the template's " + string(tmpl.ProjectType)}
		}
		if details.Category == "" {
			details.Category = tmpl.Category
		}
	}
	if !pt.Valid() {
		return nil, &models.ValidationError{Kind: models.KindInvalidProject, Field: "projectType", Message: "must be LOW_CODE or NO_CODE"}
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	p := &models.Project{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        details.Name,
		Description: details.Description,
		Category:    details.Category,
		Status:      models.ProjectStatusDraft,
		ProjectType: pt,
		TemplateID:  in.TemplateID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	slog.Info("project created", "project_id", p.ID, "owner_id", ownerID, "type", pt)
	s.publish(ctx, "", *p, "created")
	return p, nil
}

// GetProject returns the project if ownerID owns it. Projects of other
// owners are reported as not found.
func (s *Service) GetProject(ctx context.Context, ownerID string, id uuid.UUID) (*models.Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	if p.OwnerID != ownerID {
		return nil, fmt.Errorf("get project %s: %w", id, models.ErrNotFound)
	}
	return p, nil
}

// ListProjects returns one page of the owner's projects.
func (s *Service) ListProjects(ctx context.Context, ownerID string, f models.ProjectFilter, pg models.Page) ([]models.Project, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "status", Message: "unknown status " + string(f.Status)}
	}
	if f.ProjectType != "" && !f.ProjectType.Valid() {
		return nil, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "projectType", Message: "unknown project type " + string(f.ProjectType)}
	}
	list, err := s.repo.ListByOwner(ctx, ownerID, f, pg.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return list, nil
}

// DeleteProject soft-deletes the project.
func (s *Service) DeleteProject(ctx context.Context, ownerID string, id uuid.UUID) error {
	p, err := s.GetProject(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}

	slog.Info("project deleted", "project_id", id, "owner_id", ownerID)
	if s.cache != nil {
		s.cache.InvalidateProject(ctx, id)
	}
	if s.snapshots != nil && p.Deployment != nil && p.Deployment.ArtifactURL != "" {
		if err := s.snapshots.DeleteURL(ctx, p.Deployment.ArtifactURL); err != nil {
			slog.Warn("snapshot cleanup failed", "project_id", id, "url", p.Deployment.ArtifactURL, "error", err)
		}
	}
	s.publish(ctx, p.Status, *p, "deleted")
	return nil
}

// ListPendingDeployments returns projects whose deployment awaits a
// result, oldest first.
func (s *Service) ListPendingDeployments(ctx context.Context, limit int) ([]models.Project, error) {
	list, err := s.repo.ListPendingDeployments(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending deployments: %w", err)
	}
	return list, nil
}

// committed runs the post-write side effects of a change. Failures here
// never undo the write.
func (s *Service) committed(ctx context.Context, from models.ProjectStatus, p models.Project, event string) {
	if s.cache != nil {
		s.cache.InvalidateProject(ctx, p.ID)
	}
	s.publish(ctx, from, p, event)
}

func (s *Service) publish(ctx context.Context, from models.ProjectStatus, p models.Project, event string) {
	e := events.ProjectEvent{
		ProjectID: p.ID,
		OwnerID:   p.OwnerID,
		Event:     event,
		From:      from,
		To:        p.Status,
		At:        p.UpdatedAt,
	}
	if p.Deployment != nil {
		e.DeploymentURL = p.Deployment.DeploymentURL
	}
	if err := events.Emit(ctx, s.events, e); err != nil {
		slog.Warn("publish project event", "project_id", p.ID, "event", event, "error", err)
	}
}
