// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package deploy starts and tracks builds on static hosting platforms
// (Cloudflare Pages, Vercel, Netlify). Each platform implements Adapter;
// the Registry dispatches on the project's configured platform.
package deploy

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"pagecraft/internal/models"
)

// Request describes one deployment to start.
type Request struct {
	ProjectID   uuid.UUID
	ProjectName string
	Config      models.DeploymentConfig
	ArtifactURL string
}

// Handle identifies a started deployment at the provider.
type Handle struct {
	DeploymentID      string
	ProviderProjectID string
	URL               string
}

// State is the provider-reported progress of a deployment.
type State string

const (
	StateBuilding State = "building"
	StateReady    State = "ready"
	StateFailed   State = "failed"
)

// Status is a point-in-time view of a deployment.
type Status struct {
	State       State
	URL         string
	ErrorDetail string
}

// Adapter defines the interface every hosting platform must implement.
// Failures are returned as *models.AdapterError.
type Adapter interface {
	StartDeployment(ctx context.Context, req Request) (Handle, error)
	Status(ctx context.Context, h Handle) (Status, error)
	Name() models.Platform
}

// ProviderConfig holds the credentials of a single platform.
type ProviderConfig struct {
	Token     string
	AccountID string
	TeamID    string
	BaseURL   string
	Timeout   time.Duration
}

// Registry maps platforms to adapters. It is read-only after NewRegistry,
// so it is safe for concurrent use.
type Registry struct {
	adapters map[models.Platform]Adapter
}

// NewRegistry creates adapters for every platform that has a token.
// Platforms without credentials are skipped.
func NewRegistry(configs map[models.Platform]ProviderConfig) *Registry {
	r := &Registry{adapters: make(map[models.Platform]Adapter)}
	for platform, cfg := range configs {
		if cfg.Token == "" {
			continue
		}
		switch platform {
		case models.PlatformCloudflarePages:
			r.adapters[platform] = newCloudflare(cfg)
		case models.PlatformVercel:
			r.adapters[platform] = newVercel(cfg)
		case models.PlatformNetlify:
			r.adapters[platform] = newNetlify(cfg)
		}
	}
	return r
}

func (r *Registry) adapter(p models.Platform) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, &models.AdapterError{Provider: string(p), Op: "lookup", Reason: fmt.Sprintf("platform %q is not configured", p)}
	}
	return a, nil
}

// StartDeployment dispatches to the adapter for req.Config.Platform.
func (r *Registry) StartDeployment(ctx context.Context, req Request) (Handle, error) {
	a, err := r.adapter(req.Config.Platform)
	if err != nil {
		return Handle{}, err
	}
	return a.StartDeployment(ctx, req)
}

// Status dispatches to the adapter for platform.
func (r *Registry) Status(ctx context.Context, platform models.Platform, h Handle) (Status, error) {
	a, err := r.adapter(platform)
	if err != nil {
		return Status{}, err
	}
	return a.Status(ctx, h)
}

// Available returns the configured platforms in sorted order.
func (r *Registry) Available() []string {
	names := make([]string, 0, len(r.adapters))
	for p := range r.adapters {
		names = append(names, string(p))
	}
	slices.Sort(names)
	return names
}

// projectName picks the provider-side project identifier.
func projectName(req Request) string {
	if req.Config.ProviderProjectID != "" {
		return req.Config.ProviderProjectID
	}
	return req.ProjectName
}

// parseGitHubRepo extracts owner and repository from a GitHub URL.
func parseGitHubRepo(raw string) (owner, repo string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, "github.com") {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}

// ensureScheme prefixes bare hostnames some providers return.
func ensureScheme(host string) string {
	if host == "" || strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}
