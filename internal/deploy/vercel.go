// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package deploy

import (
	"context"
	"net/http"
	"net/url"

	"pagecraft/internal/models"
)

// vercel creates production deployments from a GitHub ref through the
// v13 deployments API.
type vercel struct {
	apiClient
	teamID string
}

func newVercel(cfg ProviderConfig) *vercel {
	return &vercel{
		apiClient: newAPIClient(models.PlatformVercel, cfg, "https://api.vercel.com"),
		teamID:    cfg.TeamID,
	}
}

func (a *vercel) Name() models.Platform { return models.PlatformVercel }

type vercelGitSource struct {
	Type string `json:"type"`
	Org  string `json:"org"`
	Repo string `json:"repo"`
	Ref  string `json:"ref"`
}

type vercelCreateRequest struct {
	Name      string            `json:"name"`
	Project   string            `json:"project,omitempty"`
	Target    string            `json:"target"`
	GitSource vercelGitSource   `json:"gitSource"`
	Meta      map[string]string `json:"meta,omitempty"`
}

type vercelDeployment struct {
	ID           string   `json:"id"`
	URL          string   `json:"url"`
	Alias        []string `json:"alias"`
	ReadyState   string   `json:"readyState"`
	ErrorMessage string   `json:"errorMessage"`
	ProjectID    string   `json:"projectId"`
}

func (a *vercel) path(p string) string {
	if a.teamID == "" {
		return p
	}
	return p + "?teamId=" + url.QueryEscape(a.teamID)
}

func (a *vercel) StartDeployment(ctx context.Context, req Request) (Handle, error) {
	owner, repo, ok := parseGitHubRepo(req.Config.RepositoryURL)
	if !ok {
		return Handle{}, &models.AdapterError{Provider: string(a.Name()), Op: "deploy", Reason: "vercel git deployments require a GitHub repository"}
	}

	name := projectName(req)
	_, body, err := a.do(ctx, "deploy", request{
		Method: http.MethodPost,
		Path:   a.path("/v13/deployments"),
		Body: vercelCreateRequest{
			Name:      name,
			Project:   req.Config.ProviderProjectID,
			Target:    "production",
			GitSource: vercelGitSource{Type: "github", Org: owner, Repo: repo, Ref: req.Config.Branch},
			Meta:      vercelMeta(req),
		},
	})
	if err != nil {
		return Handle{}, err
	}

	var dep vercelDeployment
	if err := a.decode("deploy", body, &dep); err != nil {
		return Handle{}, err
	}
	if dep.ID == "" {
		return Handle{}, a.fail("deploy", "deployment id missing from response", nil, false)
	}

	project := dep.ProjectID
	if project == "" {
		project = name
	}
	return Handle{DeploymentID: dep.ID, ProviderProjectID: project, URL: ensureScheme(dep.URL)}, nil
}

// vercelMeta tags the deployment so it can be traced back to the project
// and the page snapshot it was built from.
func vercelMeta(req Request) map[string]string {
	meta := map[string]string{"pagecraftProject": req.ProjectID.String()}
	if req.ArtifactURL != "" {
		meta["pagecraftArtifact"] = req.ArtifactURL
	}
	return meta
}

func (a *vercel) Status(ctx context.Context, h Handle) (Status, error) {
	_, body, err := a.do(ctx, "status", request{
		Method: http.MethodGet,
		Path:   a.path("/v13/deployments/" + url.PathEscape(h.DeploymentID)),
	})
	if err != nil {
		return Status{}, err
	}

	var dep vercelDeployment
	if err := a.decode("status", body, &dep); err != nil {
		return Status{}, err
	}

	switch dep.ReadyState {
	case "READY":
		u := dep.URL
		if len(dep.Alias) > 0 {
			u = dep.Alias[0]
		}
		return Status{State: StateReady, URL: ensureScheme(u)}, nil
	case "ERROR", "CANCELED":
		detail := dep.ErrorMessage
		if detail == "" {
			detail = "deployment " + dep.ReadyState
		}
		return Status{State: StateFailed, ErrorDetail: detail}, nil
	}
	return Status{State: StateBuilding}, nil
}
