// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"pagecraft/internal/deploy"
	"pagecraft/internal/engine"
	"pagecraft/internal/lifecycle"
	"pagecraft/internal/models"
	"pagecraft/internal/slug"
)

// maxReportAttempts bounds the re-read loop of ReportDeploymentResult
// when a concurrent writer wins the compare-and-swap.
const maxReportAttempts = 3

// ApplyEvent runs ev against the owner's project and persists the result.
// Adapter failures leave the status unchanged and come back as
// *models.AdapterError.
func (s *Service) ApplyEvent(ctx context.Context, ownerID string, id uuid.UUID, ev lifecycle.Event, payload lifecycle.Payload) (*models.Project, error) {
	p, err := s.GetProject(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if ev.IsOutcome() {
		if payload.Outcome == nil {
			return nil, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "outcome", Message: "is required"}
		}
		out := *payload.Outcome
		if out.Success != (ev == lifecycle.EventDeploymentSucceeded) {
			return nil, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "success", Message: "does not match event " + string(ev)}
		}
		return s.recordOutcome(ctx, id, out, true)
	}

	next, effect, err := lifecycle.Apply(*p, ev, payload, s.now())
	if err != nil {
		return nil, err
	}

	switch effect {
	case lifecycle.EffectVerifyModel:
		if err := s.verifyModel(ctx, p, &next); err != nil {
			return nil, err
		}
	case lifecycle.EffectVerifyRevenue:
		if err := s.verifyRevenue(ctx, p, &next); err != nil {
			return nil, err
		}
	case lifecycle.EffectStartDeployment:
		return s.startDeployment(ctx, p, next, ev)
	}

	if err := s.repo.Update(ctx, id, p.UpdatedAt, &next); err != nil {
		return nil, fmt.Errorf("apply %s to project %s: %w", ev, id, err)
	}

	slog.Info("project event applied", "project_id", id, "event", ev, "from", p.Status, "to", next.Status)
	s.committed(ctx, p.Status, next, string(ev))
	return &next, nil
}

func (s *Service) verifyModel(ctx context.Context, prev *models.Project, next *models.Project) error {
	if err := s.models.ValidateModel(ctx, *next.AIModel); err != nil {
		slog.Warn("model verification failed", "project_id", prev.ID, "type", next.AIModel.Type, "error", err)
		s.recordFailure(ctx, prev, func(q *models.Project) bool {
			if q.AIModel == nil {
				return false
			}
			q.AIModel.LastError = err.Error()
			return true
		})
		return err
	}
	now := next.UpdatedAt
	next.AIModel.VerifiedAt = &now
	return nil
}

func (s *Service) verifyRevenue(ctx context.Context, prev *models.Project, next *models.Project) error {
	if !next.Revenue.AdsenseEnabled {
		return nil
	}
	if err := s.publishers.VerifyPublisherID(ctx, next.Revenue.AdsensePublisherID); err != nil {
		slog.Warn("publisher verification failed", "project_id", prev.ID, "error", err)
		s.recordFailure(ctx, prev, func(q *models.Project) bool {
			if q.Revenue == nil {
				return false
			}
			q.Revenue.LastError = err.Error()
			return true
		})
		return err
	}
	now := next.UpdatedAt
	next.Revenue.VerifiedAt = &now
	return nil
}

// startDeployment commits the pending state first so a second start is
// refused while the provider call is in flight, then records the
// provider's deployment id. A provider failure restores the previous
// state with the error recorded on the deployment config.
func (s *Service) startDeployment(ctx context.Context, prev *models.Project, pending models.Project, ev lifecycle.Event) (*models.Project, error) {
	if err := s.repo.Update(ctx, prev.ID, prev.UpdatedAt, &pending); err != nil {
		return nil, fmt.Errorf("apply %s to project %s: %w", ev, prev.ID, err)
	}

	handle, err := s.launch(ctx, &pending)
	if err != nil {
		slog.Warn("deployment start failed", "project_id", prev.ID, "platform", pending.Deployment.Platform, "error", err)
		s.rollbackDeployment(ctx, prev, pending, err)
		return nil, err
	}

	started, err := s.recordHandle(ctx, pending, handle)
	if err != nil {
		slog.Warn("deployment started but not recorded", "project_id", prev.ID, "platform", pending.Deployment.Platform,
			"deployment_id", handle.DeploymentID, "error", err)
		return nil, fmt.Errorf("record deployment %s for project %s: %w", handle.DeploymentID, prev.ID, err)
	}

	slog.Info("deployment started", "project_id", prev.ID, "platform", started.Deployment.Platform,
		"deployment_id", handle.DeploymentID, "preview_url", handle.URL, "event", ev)
	s.committed(ctx, prev.Status, started, string(ev))
	return &started, nil
}

// recordHandle writes the provider ids onto the pending deployment. A
// concurrent edit of other fields is re-read and retried as long as the
// deployment is still pending without an id.
func (s *Service) recordHandle(ctx context.Context, cur models.Project, handle deploy.Handle) (models.Project, error) {
	for attempt := 1; ; attempt++ {
		started := cur.Clone()
		started.Deployment.DeploymentID = handle.DeploymentID
		if handle.ProviderProjectID != "" {
			started.Deployment.ProviderProjectID = handle.ProviderProjectID
		}
		started.UpdatedAt = lifecycle.Touch(cur.UpdatedAt, s.now())
		err := s.repo.Update(ctx, cur.ID, cur.UpdatedAt, &started)
		if err == nil {
			return started, nil
		}
		if !errors.Is(err, models.ErrConcurrentModification) || attempt >= maxReportAttempts {
			return models.Project{}, err
		}

		latest, gerr := s.repo.Get(ctx, cur.ID)
		if gerr != nil {
			return models.Project{}, gerr
		}
		d := latest.Deployment
		if d == nil || d.Status != models.DeploymentStatusPending || d.DeploymentID != "" {
			return models.Project{}, err
		}
		slog.Debug("deployment id write lost a race, retrying", "project_id", cur.ID, "attempt", attempt)
		latest.Deployment.ArtifactURL = cur.Deployment.ArtifactURL
		cur = *latest
	}
}

// launch uploads the NO_CODE page snapshot when storage is configured and
// asks the platform to start building. The artifact URL is written into
// p so the follow-up write keeps it.
func (s *Service) launch(ctx context.Context, p *models.Project) (deploy.Handle, error) {
	if p.IsNoCode() && s.snapshots != nil {
		content, err := s.contentFor(ctx, p)
		if err != nil {
			return deploy.Handle{}, err
		}
		html, err := engine.RenderPage(content, engine.RenderOptions{Revenue: p.Revenue, Model: p.AIModel})
		if err != nil {
			return deploy.Handle{}, fmt.Errorf("render snapshot: %w", err)
		}
		url, err := s.snapshots.UploadPage(ctx, p.ID, html)
		if err != nil {
			return deploy.Handle{}, &models.AdapterError{Provider: "storage", Op: "upload", Reason: "page snapshot upload failed", Temporary: true, Err: err}
		}
		p.Deployment.ArtifactURL = url
	}

	return s.deployer.StartDeployment(ctx, deploy.Request{
		ProjectID:   p.ID,
		ProjectName: slug.ProviderName(p.Name, p.ID),
		Config:      *p.Deployment,
		ArtifactURL: p.Deployment.ArtifactURL,
	})
}

func (s *Service) rollbackDeployment(ctx context.Context, prev *models.Project, pending models.Project, cause error) {
	restored := prev.Clone()
	if restored.Deployment == nil {
		// First start: keep the submitted settings so the owner can retry.
		d := *pending.Deployment
		d.Status = models.DeploymentStatusIdle
		d.StartedAt = nil
		d.ArtifactURL = ""
		restored.Deployment = &d
	}
	restored.Deployment.LastError = cause.Error()
	restored.UpdatedAt = lifecycle.Touch(pending.UpdatedAt, s.now())
	if err := s.repo.Update(ctx, prev.ID, pending.UpdatedAt, &restored); err != nil {
		slog.Error("restore project after failed deployment start", "project_id", prev.ID, "error", err)
		return
	}
	s.committed(ctx, pending.Status, restored, "deployment_start_failed")
}

// recordFailure persists an adapter error on the previous state. It is
// best effort: a lost race only costs the error message.
func (s *Service) recordFailure(ctx context.Context, prev *models.Project, mutate func(*models.Project) bool) {
	q := prev.Clone()
	if !mutate(&q) {
		return
	}
	q.UpdatedAt = lifecycle.Touch(prev.UpdatedAt, s.now())
	if err := s.repo.Update(ctx, prev.ID, prev.UpdatedAt, &q); err != nil {
		slog.Warn("record adapter failure", "project_id", prev.ID, "error", err)
		return
	}
	if s.cache != nil {
		s.cache.InvalidateProject(ctx, prev.ID)
	}
}

// ReportDeploymentResult records the outcome of a deployment. Reports for
// a deployment id other than the current one are ignored, and repeating a
// report already recorded changes nothing. Both cases return the current
// project without error.
func (s *Service) ReportDeploymentResult(ctx context.Context, projectID uuid.UUID, deploymentID string, outcome models.DeploymentOutcome) (*models.Project, error) {
	outcome.DeploymentID = deploymentID
	return s.recordOutcome(ctx, projectID, outcome, false)
}

// recordOutcome applies a deployment outcome with compare-and-swap
// retries. Platform reports (strict false) tolerate stale ids and late
// results. Outcome events (strict true) must name the current deployment
// from a state that accepts them; only an exact repeat of the recorded
// result is a no-op.
func (s *Service) recordOutcome(ctx context.Context, projectID uuid.UUID, outcome models.DeploymentOutcome, strict bool) (*models.Project, error) {
	outcome, err := models.ValidateOutcome(outcome)
	if err != nil {
		return nil, err
	}
	ev := lifecycle.EventDeploymentFailed
	if outcome.Success {
		ev = lifecycle.EventDeploymentSucceeded
	}

	for attempt := 1; ; attempt++ {
		p, err := s.repo.Get(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("report deployment for project %s: %w", projectID, err)
		}

		d := p.Deployment
		if d == nil || d.DeploymentID != outcome.DeploymentID {
			if strict {
				reason := "stale deployment id"
				if d == nil {
					reason = "no deployment was started"
				}
				return nil, &models.TransitionError{From: p.Status, Event: string(ev), Reason: reason}
			}
			slog.Info("stale deployment report ignored", "project_id", projectID, "deployment_id", outcome.DeploymentID)
			return p, nil
		}
		if recorded(d, outcome, strict) {
			slog.Debug("deployment report already recorded", "project_id", projectID, "deployment_id", outcome.DeploymentID)
			return p, nil
		}

		next, _, err := lifecycle.Apply(*p, ev, lifecycle.Payload{Outcome: &outcome}, s.now())
		if err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, projectID, p.UpdatedAt, &next)
		if errors.Is(err, models.ErrConcurrentModification) && attempt < maxReportAttempts {
			slog.Debug("deployment report lost a race, retrying", "project_id", projectID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("report deployment for project %s: %w", projectID, err)
		}

		slog.Info("deployment result recorded", "project_id", projectID, "deployment_id", outcome.DeploymentID,
			"success", outcome.Success, "status", next.Status)
		s.committed(ctx, p.Status, next, string(ev))
		return &next, nil
	}
}

// recorded reports whether out is already reflected in d. A success is
// final for platform reports, so a late failure after it is dropped.
func recorded(d *models.DeploymentConfig, out models.DeploymentOutcome, strict bool) bool {
	if out.Success {
		return d.Status == models.DeploymentStatusSucceeded && (!strict || d.DeploymentURL == out.URL)
	}
	if d.Status == models.DeploymentStatusFailed {
		return true
	}
	return !strict && d.Status == models.DeploymentStatusSucceeded
}

// contentFor resolves the page content to render: the project's own, the
// template's default page, or empty content that renders the built-in
// defaults.
func (s *Service) contentFor(ctx context.Context, p *models.Project) (models.PageContent, error) {
	if p.PageContent != nil {
		return *p.PageContent, nil
	}
	if p.TemplateID != nil && s.templates != nil {
		tmpl, err := s.templates.FindByID(ctx, *p.TemplateID)
		switch {
		case errors.Is(err, models.ErrNotFound):
		case err != nil:
			return models.PageContent{}, fmt.Errorf("load template: %w", err)
		case tmpl.DefaultPage != nil:
			return *tmpl.DefaultPage, nil
		}
	}
	return models.PageContent{}, nil
}

