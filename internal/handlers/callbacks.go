// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"pagecraft/internal/models"
)

// deploymentCallback is what a hosting platform (or the relay in front of
// it) posts when a build finishes.
type deploymentCallback struct {
	ProjectID    uuid.UUID `json:"projectId"`
	DeploymentID string    `json:"deploymentId"`
	Success      bool      `json:"success"`
	URL          string    `json:"url,omitempty"`
	ErrorDetail  string    `json:"errorDetail,omitempty"`
}

// callbackAck tells the caller what the project looks like after the
// report, without exposing owner data.
type callbackAck struct {
	ProjectID        uuid.UUID               `json:"projectId"`
	Status           models.ProjectStatus    `json:"status"`
	DeploymentID     string                  `json:"deploymentId,omitempty"`
	DeploymentStatus models.DeploymentStatus `json:"deploymentStatus,omitempty"`
}

// DeploymentCallback handles POST /api/v1/callbacks/deployments. The
// shared secret is checked by middleware before this runs. Repeated and
// stale reports are answered with the current project.
func (a *API) DeploymentCallback(w http.ResponseWriter, r *http.Request) {
	var cb deploymentCallback
	if err := decodeJSON(w, r, &cb); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if cb.ProjectID == uuid.Nil {
		writeServiceError(w, r, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "projectId", Message: "is required"})
		return
	}
	if cb.DeploymentID == "" {
		writeServiceError(w, r, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "deploymentId", Message: "is required"})
		return
	}

	p, err := a.projects.ReportDeploymentResult(r.Context(), cb.ProjectID, cb.DeploymentID, models.DeploymentOutcome{
		Success:     cb.Success,
		URL:         cb.URL,
		ErrorDetail: cb.ErrorDetail,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ack := callbackAck{ProjectID: p.ID, Status: p.Status}
	if p.Deployment != nil {
		ack.DeploymentID = p.Deployment.DeploymentID
		ack.DeploymentStatus = p.Deployment.Status
	}
	writeJSON(w, http.StatusOK, ack)
}
