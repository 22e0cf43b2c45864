// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package poller_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/deploy"
	"pagecraft/internal/lifecycle"
	"pagecraft/internal/models"
	"pagecraft/internal/poller"
	"pagecraft/internal/projects"
	"pagecraft/internal/projects/projectstest"
)

const owner = "user-1"

var start = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	svc      *projects.Service
	repo     *projectstest.Repo
	deployer *projectstest.Deployer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{repo: projectstest.NewRepo(), deployer: &projectstest.Deployer{Statuses: map[string]deploy.Status{}}}
	var (
		mu    sync.Mutex
		clock = start
	)
	e.svc = projects.New(projects.Deps{
		Projects:   e.repo,
		Templates:  projectstest.Templates{},
		Models:     &projectstest.Models{},
		Deployer:   e.deployer,
		Publishers: &projectstest.Publishers{},
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Millisecond)
			return clock
		},
	})
	return e
}

// pending creates a project with a deployment in flight and returns it.
func (e *env) pending(t *testing.T, name string) *models.Project {
	t.Helper()
	ctx := context.Background()
	p, err := e.svc.CreateProject(ctx, owner, projects.CreateInput{Name: name, ProjectType: models.ProjectTypeLowCode})
	require.NoError(t, err)
	_, err = e.svc.ApplyEvent(ctx, owner, p.ID, lifecycle.EventBeginDevelopment, lifecycle.Payload{})
	require.NoError(t, err)
	m := models.AIModelConfig{Type: models.ModelTypeCustom, ModelURL: "https://models.example.com/v1/" + name}
	_, err = e.svc.ApplyEvent(ctx, owner, p.ID, lifecycle.EventAttachAIModel, lifecycle.Payload{AIModel: &m})
	require.NoError(t, err)
	d := models.DeploymentConfig{Platform: models.PlatformVercel, RepositoryURL: "https://github.com/acme/" + name}
	p, err = e.svc.ApplyEvent(ctx, owner, p.ID, lifecycle.EventStartDeployment, lifecycle.Payload{Deployment: &d})
	require.NoError(t, err)
	return p
}

func (e *env) get(t *testing.T, p *models.Project) *models.Project {
	t.Helper()
	got, err := e.svc.GetProject(context.Background(), owner, p.ID)
	require.NoError(t, err)
	return got
}

func TestRunOnceReportsTerminalStates(t *testing.T) {
	e := newEnv(t)
	ready := e.pending(t, "ready")
	failed := e.pending(t, "failed")
	building := e.pending(t, "building")

	e.deployer.Statuses[ready.Deployment.DeploymentID] = deploy.Status{State: deploy.StateReady, URL: "https://ready.vercel.app"}
	e.deployer.Statuses[failed.Deployment.DeploymentID] = deploy.Status{State: deploy.StateFailed, ErrorDetail: "build error"}

	p, err := poller.New(e.svc, e.deployer, poller.Config{Interval: time.Minute, Workers: 2, Timeout: time.Hour, Now: func() time.Time { return start }})
	require.NoError(t, err)
	defer p.Stop()

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := e.get(t, ready)
	assert.Equal(t, models.ProjectStatusDeployed, got.Status)
	assert.Equal(t, "https://ready.vercel.app", got.Deployment.DeploymentURL)

	got = e.get(t, failed)
	assert.Equal(t, models.ProjectStatusDeveloping, got.Status)
	assert.Equal(t, models.DeploymentStatusFailed, got.Deployment.Status)
	assert.Equal(t, "build error", got.Deployment.LastError)

	assert.True(t, e.get(t, building).HasPendingDeployment())

	n, err = p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "only the building deployment is left")
}

func TestRunOnceTimesOutStaleDeployments(t *testing.T) {
	e := newEnv(t)
	pr := e.pending(t, "slow")

	later := func() time.Time { return start.Add(2 * time.Hour) }
	p, err := poller.New(e.svc, e.deployer, poller.Config{Interval: time.Minute, Timeout: time.Hour, Now: later})
	require.NoError(t, err)
	defer p.Stop()

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := e.get(t, pr)
	assert.Equal(t, models.DeploymentStatusFailed, got.Deployment.Status)
	assert.Equal(t, poller.TimeoutReason, got.Deployment.LastError)
}

func TestRunOnceIgnoresCheckErrors(t *testing.T) {
	e := newEnv(t)
	pr := e.pending(t, "flaky")
	e.deployer.Err = &models.AdapterError{Provider: "vercel", Op: "status", Reason: "unavailable", Temporary: true}

	p, err := poller.New(e.svc, e.deployer, poller.Config{Interval: time.Minute, Now: func() time.Time { return start }})
	require.NoError(t, err)
	defer p.Stop()

	n, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, e.get(t, pr).HasPendingDeployment())
}

func TestSchedulerRunsPoll(t *testing.T) {
	e := newEnv(t)
	pr := e.pending(t, "scheduled")
	e.deployer.Statuses[pr.Deployment.DeploymentID] = deploy.Status{State: deploy.StateReady, URL: "https://scheduled.vercel.app"}

	p, err := poller.New(e.svc, e.deployer, poller.Config{Interval: 20 * time.Millisecond, Now: func() time.Time { return start }})
	require.NoError(t, err)
	p.Start()
	defer p.Stop()

	require.Eventually(t, func() bool {
		return e.get(t, pr).Status == models.ProjectStatusDeployed
	}, 5*time.Second, 20*time.Millisecond)
}
