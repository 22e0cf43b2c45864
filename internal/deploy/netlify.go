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

// netlify triggers builds of an existing, repository-linked site. The
// site ID must be supplied as the provider project id.
type netlify struct {
	apiClient
}

func newNetlify(cfg ProviderConfig) *netlify {
	return &netlify{apiClient: newAPIClient(models.PlatformNetlify, cfg, "https://api.netlify.com/api/v1")}
}

func (a *netlify) Name() models.Platform { return models.PlatformNetlify }

type netlifyBuild struct {
	ID       string `json:"id"`
	DeployID string `json:"deploy_id"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

type netlifyDeploy struct {
	ID           string `json:"id"`
	SiteID       string `json:"site_id"`
	State        string `json:"state"`
	URL          string `json:"url"`
	SSLURL       string `json:"ssl_url"`
	DeploySSLURL string `json:"deploy_ssl_url"`
	ErrorMessage string `json:"error_message"`
}

func (a *netlify) StartDeployment(ctx context.Context, req Request) (Handle, error) {
	site := req.Config.ProviderProjectID
	if site == "" {
		return Handle{}, &models.AdapterError{Provider: string(a.Name()), Op: "deploy", Reason: "netlify deployments need the site id as providerProjectId"}
	}

	_, body, err := a.do(ctx, "deploy", request{
		Method: http.MethodPost,
		Path:   "/sites/" + url.PathEscape(site) + "/builds",
		Body:   map[string]any{"clear_cache": false},
	})
	if err != nil {
		return Handle{}, err
	}

	var build netlifyBuild
	if err := a.decode("deploy", body, &build); err != nil {
		return Handle{}, err
	}
	if build.DeployID == "" {
		return Handle{}, a.fail("deploy", "deploy id missing from build response", nil, false)
	}
	return Handle{DeploymentID: build.DeployID, ProviderProjectID: site}, nil
}

func (a *netlify) Status(ctx context.Context, h Handle) (Status, error) {
	_, body, err := a.do(ctx, "status", request{
		Method: http.MethodGet,
		Path:   "/deploys/" + url.PathEscape(h.DeploymentID),
	})
	if err != nil {
		return Status{}, err
	}

	var dep netlifyDeploy
	if err := a.decode("status", body, &dep); err != nil {
		return Status{}, err
	}

	switch dep.State {
	case "ready":
		u := dep.SSLURL
		if u == "" {
			u = dep.URL
		}
		return Status{State: StateReady, URL: ensureScheme(u)}, nil
	case "error", "rejected":
		detail := dep.ErrorMessage
		if detail == "" {
			detail = "deploy " + dep.State
		}
		return Status{State: StateFailed, ErrorDetail: detail}, nil
	}
	return Status{State: StateBuilding}, nil
}
