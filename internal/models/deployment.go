// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"regexp"
	"strings"
	"time"
)

// Platform names a hosting provider.
type Platform string

const (
	PlatformCloudflarePages Platform = "cloudflare-pages"
	PlatformVercel          Platform = "vercel"
	PlatformNetlify         Platform = "netlify"
)

// Valid reports whether p is a supported hosting provider.
func (p Platform) Valid() bool {
	switch p {
	case PlatformCloudflarePages, PlatformVercel, PlatformNetlify:
		return true
	}
	return false
}

// DeploymentStatus tracks the latest deployment attempt.
type DeploymentStatus string

const (
	DeploymentStatusIdle      DeploymentStatus = "idle"
	DeploymentStatusPending   DeploymentStatus = "pending"
	DeploymentStatusSucceeded DeploymentStatus = "succeeded"
	DeploymentStatusFailed    DeploymentStatus = "failed"
)

// DefaultBranch is used when a deployment config names no branch.
const DefaultBranch = "main"

var (
	branchPattern       = regexp.MustCompile(`^[A-Za-z0-9._/-]{1,100}$`)
	providerProjPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// DeploymentConfig describes where and how the project's page is hosted.
// Only the latest deployment is kept; a redeploy replaces it in place.
type DeploymentConfig struct {
	Platform          Platform         `json:"platform"`
	RepositoryURL     string           `json:"repositoryUrl"`
	Branch            string           `json:"branch,omitempty"`
	ProviderProjectID string           `json:"providerProjectId,omitempty"`
	Status            DeploymentStatus `json:"status,omitempty"`
	DeploymentID      string           `json:"deploymentId,omitempty"`
	DeploymentURL     string           `json:"deploymentUrl,omitempty"`
	ArtifactURL       string           `json:"artifactUrl,omitempty"`
	StartedAt         *time.Time       `json:"startedAt,omitempty"`
	LastDeployedAt    *time.Time       `json:"lastDeployedAt,omitempty"`
	LastError         string           `json:"lastError,omitempty"`
}

func (c DeploymentConfig) clone() DeploymentConfig {
	out := c
	if c.StartedAt != nil {
		t := *c.StartedAt
		out.StartedAt = &t
	}
	if c.LastDeployedAt != nil {
		t := *c.LastDeployedAt
		out.LastDeployedAt = &t
	}
	return out
}

// ValidateDeployment checks the user-supplied part of a deployment config.
// Provider-assigned fields are dropped from the returned copy.
func ValidateDeployment(cfg DeploymentConfig) (DeploymentConfig, error) {
	out := DeploymentConfig{
		Platform:          cfg.Platform,
		RepositoryURL:     strings.TrimSpace(cfg.RepositoryURL),
		Branch:            strings.TrimSpace(cfg.Branch),
		ProviderProjectID: strings.TrimSpace(cfg.ProviderProjectID),
		Status:            DeploymentStatusIdle,
	}
	if !out.Platform.Valid() {
		return out, invalid(KindInvalidDeploymentConfig, "platform", "unsupported platform %q", cfg.Platform)
	}
	if _, err := parseAbsoluteURL(out.RepositoryURL); err != nil {
		return out, invalid(KindInvalidDeploymentConfig, "repositoryUrl", "%s", err.Error())
	}
	if out.Branch == "" {
		out.Branch = DefaultBranch
	}
	if !branchPattern.MatchString(out.Branch) || strings.Contains(out.Branch, "..") {
		return out, invalid(KindInvalidDeploymentConfig, "branch", "invalid branch name")
	}
	if out.ProviderProjectID != "" && !providerProjPattern.MatchString(out.ProviderProjectID) {
		return out, invalid(KindInvalidDeploymentConfig, "providerProjectId", "may only contain letters, digits, dot, dash and underscore")
	}
	return out, nil
}

// DeploymentOutcome is the terminal result a hosting adapter reports for
// one deployment.
type DeploymentOutcome struct {
	DeploymentID string `json:"deploymentId"`
	Success      bool   `json:"success"`
	URL          string `json:"url,omitempty"`
	ErrorDetail  string `json:"errorDetail,omitempty"`
}

// ValidateOutcome checks that a success carries a usable URL.
func ValidateOutcome(o DeploymentOutcome) (DeploymentOutcome, error) {
	o.URL = strings.TrimSpace(o.URL)
	if o.Success {
		if _, err := parseAbsoluteURL(o.URL); err != nil {
			return o, invalid(KindInvalidPayload, "url", "%s", err.Error())
		}
	}
	return o, nil
}
