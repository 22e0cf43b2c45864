// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package lifecycle implements the project state machine. Apply is pure:
// it derives the next project state from the current one and never
// performs I/O. Side effects it requests are reported as an Effect for
// the caller to run.
package lifecycle

import (
	"slices"
	"time"

	"pagecraft/internal/models"
)

// Event is a request to change a project.
type Event string

const (
	EventBeginDevelopment    Event = "begin_development"
	EventAttachAIModel       Event = "attach_ai_model"
	EventStartDeployment     Event = "start_deployment"
	EventDeploymentSucceeded Event = "deployment_succeeded"
	EventDeploymentFailed    Event = "deployment_failed"
	EventRedeploy            Event = "redeploy"
	EventArchive             Event = "archive"
	EventRestore             Event = "restore"
	EventAttachRevenueConfig Event = "attach_revenue_config"
	EventUpdatePageContent   Event = "update_page_content"
	EventUpdateDetails       Event = "update_details"
)

// Events lists every known event in table order.
var Events = []Event{
	EventBeginDevelopment,
	EventAttachAIModel,
	EventStartDeployment,
	EventDeploymentSucceeded,
	EventDeploymentFailed,
	EventRedeploy,
	EventArchive,
	EventRestore,
	EventAttachRevenueConfig,
	EventUpdatePageContent,
	EventUpdateDetails,
}

// Valid reports whether e is a known event.
func (e Event) Valid() bool {
	return slices.Contains(Events, e)
}

// IsOutcome reports whether e is reported by a hosting adapter rather
// than requested by the project owner.
func (e Event) IsOutcome() bool {
	return e == EventDeploymentSucceeded || e == EventDeploymentFailed
}

// Effect is the side effect the caller must run before persisting.
type Effect int

const (
	EffectNone Effect = iota
	EffectVerifyModel
	EffectStartDeployment
	EffectVerifyRevenue
)

func (e Effect) String() string {
	switch e {
	case EffectVerifyModel:
		return "verify_model"
	case EffectStartDeployment:
		return "start_deployment"
	case EffectVerifyRevenue:
		return "verify_revenue"
	}
	return "none"
}

// Payload carries the event's data. Only the field matching the event is read.
type Payload struct {
	AIModel     *models.AIModelConfig
	Deployment  *models.DeploymentConfig
	Revenue     *models.RevenueConfig
	PageContent *models.PageContent
	Details     *models.ProjectDetails
	Outcome     *models.DeploymentOutcome
}

var (
	anyLive = []models.ProjectStatus{models.ProjectStatusDraft, models.ProjectStatusDeveloping, models.ProjectStatusDeployed}
	live    = []models.ProjectStatus{models.ProjectStatusDeveloping, models.ProjectStatusDeployed}
)

// allowed maps each event to the statuses it may be applied from.
var allowed = map[Event][]models.ProjectStatus{
	EventBeginDevelopment:    {models.ProjectStatusDraft},
	EventAttachAIModel:       {models.ProjectStatusDeveloping},
	EventStartDeployment:     {models.ProjectStatusDeveloping},
	EventDeploymentSucceeded: {models.ProjectStatusDeveloping},
	EventDeploymentFailed:    {models.ProjectStatusDeveloping},
	EventRedeploy:            {models.ProjectStatusDeployed},
	EventArchive:             anyLive,
	EventRestore:             {models.ProjectStatusArchived},
	EventAttachRevenueConfig: live,
	EventUpdatePageContent:   anyLive,
	EventUpdateDetails:       anyLive,
}

// Allowed reports whether ev may be applied from status, ignoring guards
// that depend on the rest of the project.
func Allowed(status models.ProjectStatus, ev Event) bool {
	return slices.Contains(allowed[ev], status)
}

// Apply computes the project state that results from ev. The input is
// never mutated. now stamps UpdatedAt and any event-specific timestamps.
func Apply(p models.Project, ev Event, payload Payload, now time.Time) (models.Project, Effect, error) {
	if !ev.Valid() {
		return p, EffectNone, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "event", Message: "unknown event " + string(ev)}
	}
	if !Allowed(p.Status, ev) {
		return p, EffectNone, reject(p, ev, "")
	}

	now = now.UTC().Truncate(time.Microsecond)
	next := p.Clone()
	effect := EffectNone

	switch ev {
	case EventBeginDevelopment:
		next.Status = models.ProjectStatusDeveloping

	case EventAttachAIModel:
		if payload.AIModel == nil {
			return p, EffectNone, missing(models.KindInvalidModelConfig, "aiModel")
		}
		cfg, err := models.ValidateAIModel(*payload.AIModel)
		if err != nil {
			return p, EffectNone, err
		}
		next.AIModel = &cfg
		effect = EffectVerifyModel

	case EventStartDeployment, EventRedeploy:
		if p.AIModel == nil {
			return p, EffectNone, reject(p, ev, "an AI model must be attached first")
		}
		if p.HasPendingDeployment() {
			return p, EffectNone, reject(p, ev, "a deployment is already in progress")
		}
		cfg, err := deploymentFor(p, payload)
		if err != nil {
			return p, EffectNone, err
		}
		cfg.Status = models.DeploymentStatusPending
		cfg.DeploymentID = ""
		cfg.ArtifactURL = ""
		cfg.LastError = ""
		cfg.StartedAt = &now
		next.Deployment = &cfg
		next.Status = models.ProjectStatusDeveloping
		effect = EffectStartDeployment

	case EventDeploymentSucceeded:
		out, err := outcomeFor(p, ev, payload, true)
		if err != nil {
			return p, EffectNone, err
		}
		if p.AIModel == nil {
			return p, EffectNone, reject(p, ev, "no AI model attached")
		}
		if p.Deployment.Status != models.DeploymentStatusPending && p.Deployment.Status != models.DeploymentStatusFailed {
			return p, EffectNone, reject(p, ev, "deployment is not awaiting a result")
		}
		next.Deployment.Status = models.DeploymentStatusSucceeded
		next.Deployment.DeploymentURL = out.URL
		next.Deployment.LastDeployedAt = &now
		next.Deployment.LastError = ""
		next.Status = models.ProjectStatusDeployed

	case EventDeploymentFailed:
		out, err := outcomeFor(p, ev, payload, false)
		if err != nil {
			return p, EffectNone, err
		}
		if p.Deployment.Status != models.DeploymentStatusPending {
			return p, EffectNone, reject(p, ev, "deployment is not awaiting a result")
		}
		next.Deployment.Status = models.DeploymentStatusFailed
		next.Deployment.LastError = out.ErrorDetail
		if next.Deployment.LastError == "" {
			next.Deployment.LastError = "deployment failed"
		}

	case EventArchive:
		next.Status = models.ProjectStatusArchived

	case EventRestore:
		next.Status = models.ProjectStatusDraft

	case EventAttachRevenueConfig:
		if payload.Revenue == nil {
			return p, EffectNone, missing(models.KindInvalidRevenueConfig, "revenue")
		}
		cfg, err := models.ValidateRevenue(*payload.Revenue)
		if err != nil {
			return p, EffectNone, err
		}
		next.Revenue = &cfg
		effect = EffectVerifyRevenue

	case EventUpdatePageContent:
		if !p.IsNoCode() {
			return p, EffectNone, reject(p, ev, "page content is only editable on NO_CODE projects")
		}
		if payload.PageContent == nil {
			return p, EffectNone, missing(models.KindInvalidPageContent, "pageContent")
		}
		pc, err := models.ValidatePageContent(*payload.PageContent)
		if err != nil {
			return p, EffectNone, err
		}
		next.PageContent = &pc

	case EventUpdateDetails:
		if payload.Details == nil {
			return p, EffectNone, missing(models.KindInvalidProject, "details")
		}
		d, err := models.ValidateDetails(*payload.Details)
		if err != nil {
			return p, EffectNone, err
		}
		next.Name = d.Name
		next.Description = d.Description
		next.Category = d.Category
	}

	next.UpdatedAt = Touch(p.UpdatedAt, now)
	return next, effect, nil
}

// Touch returns a modification timestamp strictly after prev so that the
// (id, updatedAt) version key always changes on write.
func Touch(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		return prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}

// deploymentFor picks the deployment settings for a start or redeploy:
// the payload when given, otherwise the config already on the project.
func deploymentFor(p models.Project, payload Payload) (models.DeploymentConfig, error) {
	if payload.Deployment != nil {
		cfg, err := models.ValidateDeployment(*payload.Deployment)
		if err != nil {
			return cfg, err
		}
		if p.Deployment != nil && p.Deployment.Platform == cfg.Platform {
			cfg.DeploymentURL = p.Deployment.DeploymentURL
			cfg.LastDeployedAt = p.Deployment.LastDeployedAt
			if cfg.ProviderProjectID == "" {
				cfg.ProviderProjectID = p.Deployment.ProviderProjectID
			}
		}
		return cfg, nil
	}
	if p.Deployment == nil {
		return models.DeploymentConfig{}, missing(models.KindInvalidDeploymentConfig, "deployment")
	}
	return *p.Deployment, nil
}

func outcomeFor(p models.Project, ev Event, payload Payload, success bool) (models.DeploymentOutcome, error) {
	if payload.Outcome == nil {
		return models.DeploymentOutcome{}, missing(models.KindInvalidPayload, "outcome")
	}
	out, err := models.ValidateOutcome(*payload.Outcome)
	if err != nil {
		return out, err
	}
	if out.Success != success {
		return out, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "success", Message: "does not match event " + string(ev)}
	}
	if p.Deployment == nil {
		return out, reject(p, ev, "no deployment was started")
	}
	if p.Deployment.DeploymentID != out.DeploymentID {
		return out, reject(p, ev, "stale deployment id")
	}
	return out, nil
}

func reject(p models.Project, ev Event, reason string) error {
	return &models.TransitionError{From: p.Status, Event: string(ev), Reason: reason}
}

func missing(kind models.ValidationKind, field string) error {
	return &models.ValidationError{Kind: kind, Field: field, Message: "is required"}
}
