// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package poller checks in-flight deployments with their hosting platform
// and reports terminal results back to the projects service. It is the
// fallback for platforms that never call the deployment callback.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"

	"pagecraft/internal/deploy"
	"pagecraft/internal/models"
)

// TimeoutReason is recorded on deployments that exceeded Config.Timeout.
const TimeoutReason = "timeout"

// Projects is the part of the projects service the poller drives.
type Projects interface {
	ListPendingDeployments(ctx context.Context, limit int) ([]models.Project, error)
	ReportDeploymentResult(ctx context.Context, projectID uuid.UUID, deploymentID string, outcome models.DeploymentOutcome) (*models.Project, error)
}

// StatusChecker asks a hosting platform about one deployment.
type StatusChecker interface {
	Status(ctx context.Context, platform models.Platform, h deploy.Handle) (deploy.Status, error)
}

type Config struct {
	Interval  time.Duration
	Timeout   time.Duration
	Workers   int
	BatchSize int
	Now       func() time.Time
}

type Poller struct {
	projects  Projects
	checker   StatusChecker
	cfg       Config
	pool      *ants.Pool
	scheduler gocron.Scheduler
}

// New creates a poller with its worker pool and a scheduler job that runs
// RunOnce every Interval. Runs never overlap.
func New(projects Projects, checker StatusChecker, cfg Config) (*Poller, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = models.MaxPageLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create poller pool: %w", err)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		pool.Release()
		return nil, fmt.Errorf("create poller scheduler: %w", err)
	}

	p := &Poller{projects: projects, checker: checker, cfg: cfg, pool: pool, scheduler: s}
	_, err = s.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(p.tick),
		gocron.WithName("deployment_poller"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		pool.Release()
		return nil, fmt.Errorf("register poller job: %w", err)
	}
	return p, nil
}

func (p *Poller) Start() {
	p.scheduler.Start()
	slog.Info("deployment poller started", "interval", p.cfg.Interval, "workers", p.cfg.Workers, "timeout", p.cfg.Timeout)
}

// Stop waits for a running pass to finish and releases the pool.
func (p *Poller) Stop() error {
	err := p.scheduler.Shutdown()
	p.pool.Release()
	slog.Info("deployment poller stopped")
	return err
}

func (p *Poller) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Interval)
	defer cancel()
	if _, err := p.RunOnce(ctx); err != nil {
		slog.Error("deployment poll failed", "error", err)
	}
}

// RunOnce checks one batch of pending deployments and returns how many
// results were reported.
func (p *Poller) RunOnce(ctx context.Context) (int, error) {
	pending, err := p.projects.ListPendingDeployments(ctx, p.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	pending = lo.Filter(pending, func(pr models.Project, _ int) bool { return pr.HasPendingDeployment() })
	if len(pending) == 0 {
		return 0, nil
	}

	var (
		wg       sync.WaitGroup
		reported atomic.Int64
	)
	for _, pr := range pending {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if p.check(ctx, pr) {
				reported.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			slog.Error("submit deployment check", "project_id", pr.ID, "error", err)
		}
	}
	wg.Wait()

	n := int(reported.Load())
	slog.Debug("deployment poll finished", "pending", len(pending), "reported", n)
	return n, nil
}

// check reports a terminal result for pr when there is one.
func (p *Poller) check(ctx context.Context, pr models.Project) bool {
	d := pr.Deployment
	log := slog.With("project_id", pr.ID, "platform", d.Platform, "deployment_id", d.DeploymentID)

	if p.cfg.Timeout > 0 && d.StartedAt != nil && p.cfg.Now().Sub(*d.StartedAt) > p.cfg.Timeout {
		log.Warn("deployment timed out", "started_at", d.StartedAt)
		return p.report(ctx, pr, models.DeploymentOutcome{ErrorDetail: TimeoutReason})
	}
	if d.DeploymentID == "" {
		// The start request is still recording its provider id.
		return false
	}

	st, err := p.checker.Status(ctx, d.Platform, deploy.Handle{DeploymentID: d.DeploymentID, ProviderProjectID: d.ProviderProjectID})
	if err != nil {
		log.Warn("deployment status check failed", "error", err)
		return false
	}

	switch st.State {
	case deploy.StateReady:
		if st.URL == "" {
			log.Warn("ready deployment has no url")
			return false
		}
		return p.report(ctx, pr, models.DeploymentOutcome{Success: true, URL: st.URL})
	case deploy.StateFailed:
		return p.report(ctx, pr, models.DeploymentOutcome{ErrorDetail: st.ErrorDetail})
	}
	return false
}

func (p *Poller) report(ctx context.Context, pr models.Project, out models.DeploymentOutcome) bool {
	if _, err := p.projects.ReportDeploymentResult(ctx, pr.ID, pr.Deployment.DeploymentID, out); err != nil {
		slog.Error("report deployment result", "project_id", pr.ID, "error", err)
		return false
	}
	return true
}
