// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package deploy

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"pagecraft/internal/models"
)

// cloudflarePages drives git-connected Cloudflare Pages projects through
// the v4 API. A missing project is created once, bound to the repository.
type cloudflarePages struct {
	apiClient
	accountID string
}

func newCloudflare(cfg ProviderConfig) *cloudflarePages {
	return &cloudflarePages{
		apiClient: newAPIClient(models.PlatformCloudflarePages, cfg, "https://api.cloudflare.com/client/v4"),
		accountID: cfg.AccountID,
	}
}

func (a *cloudflarePages) Name() models.Platform { return models.PlatformCloudflarePages }

type cfEnvelope[T any] struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result T `json:"result"`
}

type cfDeployment struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Aliases     []string `json:"aliases"`
	ProjectName string   `json:"project_name"`
	LatestStage struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"latest_stage"`
}

func (a *cloudflarePages) projectPath(project string) string {
	return fmt.Sprintf("/accounts/%s/pages/projects/%s", url.PathEscape(a.accountID), url.PathEscape(project))
}

// StartDeployment triggers a build of the configured branch.
func (a *cloudflarePages) StartDeployment(ctx context.Context, req Request) (Handle, error) {
	project := projectName(req)

	dep, status, err := a.createDeployment(ctx, project, req.Config.Branch)
	if status == http.StatusNotFound {
		if err := a.createProject(ctx, project, req.Config); err != nil {
			return Handle{}, err
		}
		dep, _, err = a.createDeployment(ctx, project, req.Config.Branch)
	}
	if err != nil {
		return Handle{}, err
	}

	return Handle{DeploymentID: dep.ID, ProviderProjectID: project, URL: cfURL(dep)}, nil
}

func (a *cloudflarePages) createDeployment(ctx context.Context, project, branch string) (cfDeployment, int, error) {
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	if err := mw.WriteField("branch", branch); err != nil {
		return cfDeployment{}, 0, a.fail("deploy", "encode form", err, false)
	}
	if err := mw.Close(); err != nil {
		return cfDeployment{}, 0, a.fail("deploy", "encode form", err, false)
	}

	status, body, err := a.do(ctx, "deploy", request{
		Method:      http.MethodPost,
		Path:        a.projectPath(project) + "/deployments",
		Raw:         &form,
		ContentType: mw.FormDataContentType(),
	})
	if err != nil {
		return cfDeployment{}, status, a.withEnvelopeErrors(err, body)
	}

	var env cfEnvelope[cfDeployment]
	if err := a.decode("deploy", body, &env); err != nil {
		return cfDeployment{}, status, err
	}
	if !env.Success || env.Result.ID == "" {
		return cfDeployment{}, status, a.withEnvelopeErrors(a.fail("deploy", "deployment was not created", nil, false), body)
	}
	return env.Result, status, nil
}

func (a *cloudflarePages) createProject(ctx context.Context, project string, cfg models.DeploymentConfig) error {
	owner, repo, ok := parseGitHubRepo(cfg.RepositoryURL)
	if !ok {
		return &models.AdapterError{Provider: string(a.Name()), Op: "create project", Reason: "cloudflare pages git projects require a GitHub repository"}
	}
	payload := map[string]any{
		"name":              project,
		"production_branch": cfg.Branch,
		"source": map[string]any{
			"type": "github",
			"config": map[string]any{
				"owner":                          owner,
				"repo_name":                      repo,
				"production_branch":              cfg.Branch,
				"deployments_enabled":            true,
				"production_deployments_enabled": true,
			},
		},
	}
	_, body, err := a.do(ctx, "create project", request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/accounts/%s/pages/projects", url.PathEscape(a.accountID)),
		Body:   payload,
	})
	if err != nil {
		return a.withEnvelopeErrors(err, body)
	}
	return nil
}

// Status reads the latest stage of the deployment.
func (a *cloudflarePages) Status(ctx context.Context, h Handle) (Status, error) {
	_, body, err := a.do(ctx, "status", request{
		Method: http.MethodGet,
		Path:   a.projectPath(h.ProviderProjectID) + "/deployments/" + url.PathEscape(h.DeploymentID),
	})
	if err != nil {
		return Status{}, a.withEnvelopeErrors(err, body)
	}

	var env cfEnvelope[cfDeployment]
	if err := a.decode("status", body, &env); err != nil {
		return Status{}, err
	}

	stage := env.Result.LatestStage
	switch {
	case stage.Status == "failure" || stage.Status == "canceled":
		return Status{State: StateFailed, ErrorDetail: fmt.Sprintf("%s stage %s", stage.Name, stage.Status)}, nil
	case stage.Name == "deploy" && stage.Status == "success":
		return Status{State: StateReady, URL: cfURL(env.Result)}, nil
	}
	return Status{State: StateBuilding}, nil
}

// withEnvelopeErrors appends Cloudflare's error messages to an AdapterError.
func (a *cloudflarePages) withEnvelopeErrors(err error, body []byte) error {
	ae, ok := models.AsAdapter(err)
	if !ok || len(body) == 0 {
		return err
	}
	var env cfEnvelope[struct{}]
	if a.decode("", body, &env) != nil || len(env.Errors) == 0 {
		return err
	}
	msgs := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		msgs = append(msgs, fmt.Sprintf("%s (code %d)", e.Message, e.Code))
	}
	ae.Reason = strings.Join(msgs, "; ")
	return ae
}

// cfURL prefers the stable branch alias over the per-deployment hash URL.
func cfURL(d cfDeployment) string {
	if len(d.Aliases) > 0 {
		return ensureScheme(d.Aliases[0])
	}
	return ensureScheme(d.URL)
}
