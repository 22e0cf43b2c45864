// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package projectstest provides in-memory collaborators for testing code
// built on the projects service.
package projectstest

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagecraft/internal/ai"
	"pagecraft/internal/deploy"
	"pagecraft/internal/models"
)

// Repo is an in-memory projects.Repository with the same compare-and-swap
// rules as the Postgres store.
type Repo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project
	deleted  map[uuid.UUID]bool

	// BeforeUpdate, when set, runs before each Update takes the lock.
	// Tests use it to interleave a competing write.
	BeforeUpdate func(id uuid.UUID)
	Updates      int
}

func NewRepo() *Repo {
	return &Repo{projects: map[uuid.UUID]models.Project{}, deleted: map[uuid.UUID]bool{}}
}

func (r *Repo) Create(_ context.Context, p *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p.Clone()
	return nil
}

func (r *Repo) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || r.deleted[id] {
		return nil, models.ErrNotFound
	}
	c := p.Clone()
	return &c, nil
}

func (r *Repo) Update(_ context.Context, id uuid.UUID, expectedUpdatedAt time.Time, p *models.Project) error {
	if r.BeforeUpdate != nil {
		r.BeforeUpdate(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.projects[id]
	if !ok || r.deleted[id] {
		return models.ErrNotFound
	}
	if !cur.UpdatedAt.Equal(expectedUpdatedAt) {
		return models.ErrConcurrentModification
	}
	r.projects[id] = p.Clone()
	r.Updates++
	return nil
}

// Put overwrites a project without any version check.
func (r *Repo) Put(p models.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p.Clone()
}

func (r *Repo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok || r.deleted[id] {
		return models.ErrNotFound
	}
	r.deleted[id] = true
	return nil
}

func (r *Repo) ListByOwner(_ context.Context, ownerID string, f models.ProjectFilter, pg models.Page) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Project
	for id, p := range r.projects {
		if r.deleted[id] || p.OwnerID != ownerID {
			continue
		}
		if (f.Status != "" && p.Status != f.Status) || (f.ProjectType != "" && p.ProjectType != f.ProjectType) || (f.Category != "" && p.Category != f.Category) {
			continue
		}
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b models.Project) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	pg = pg.Normalize()
	if pg.Offset >= len(out) {
		return nil, nil
	}
	return out[pg.Offset:min(len(out), pg.Offset+pg.Limit)], nil
}

func (r *Repo) ListPendingDeployments(_ context.Context, limit int) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Project
	for id, p := range r.projects {
		if r.deleted[id] || p.Status != models.ProjectStatusDeveloping || !p.HasPendingDeployment() {
			continue
		}
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b models.Project) int { return a.UpdatedAt.Compare(b.UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Templates is an in-memory template catalog.
type Templates map[uuid.UUID]models.Template

func (t Templates) FindByID(_ context.Context, id uuid.UUID) (*models.Template, error) {
	tmpl, ok := t[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &tmpl, nil
}

func (t Templates) List(_ context.Context) ([]models.Template, error) {
	out := make([]models.Template, 0, len(t))
	for _, tmpl := range t {
		out = append(out, tmpl)
	}
	slices.SortFunc(out, func(a, b models.Template) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// Models fakes the model host. Err, when set, fails every call.
type Models struct {
	mu          sync.Mutex
	Err         error
	Predictions []ai.Prediction
	Validated   []models.AIModelConfig
}

func (m *Models) ValidateModel(_ context.Context, cfg models.AIModelConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Validated = append(m.Validated, cfg)
	return m.Err
}

func (m *Models) Predict(_ context.Context, _ models.AIModelConfig, _ ai.SampleInput) ([]ai.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Predictions, nil
}

// Deployer fakes a hosting platform. Each start hands out the next id
// from IDs, or "dpl-<n>" once they run out.
type Deployer struct {
	mu       sync.Mutex
	Err      error
	IDs      []string
	Requests []deploy.Request
	Statuses map[string]deploy.Status
}

func (d *Deployer) StartDeployment(_ context.Context, req deploy.Request) (deploy.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Requests = append(d.Requests, req)
	if d.Err != nil {
		return deploy.Handle{}, d.Err
	}
	id := "dpl-" + strconv.Itoa(len(d.Requests))
	if len(d.IDs) > 0 {
		id, d.IDs = d.IDs[0], d.IDs[1:]
	}
	return deploy.Handle{DeploymentID: id, ProviderProjectID: req.ProjectName}, nil
}

func (d *Deployer) Status(_ context.Context, _ models.Platform, h deploy.Handle) (deploy.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return deploy.Status{}, d.Err
	}
	st, ok := d.Statuses[h.DeploymentID]
	if !ok {
		return deploy.Status{State: deploy.StateBuilding}, nil
	}
	return st, nil
}

// Publishers fakes the ad network publisher check.
type Publishers struct {
	Err     error
	Checked []string
}

func (p *Publishers) VerifyPublisherID(_ context.Context, id string) error {
	p.Checked = append(p.Checked, id)
	return p.Err
}

// Events records published messages.
type Events struct {
	mu   sync.Mutex
	Keys []string
	Err  error
}

func (e *Events) Publish(_ context.Context, routingKey string, _ []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Keys = append(e.Keys, routingKey)
	return e.Err
}

func (e *Events) Close() error { return nil }

// Published returns a copy of the recorded routing keys.
func (e *Events) Published() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.Keys)
}

// Cache is an in-memory preview cache keyed like the Valkey one.
type Cache struct {
	mu          sync.Mutex
	Entries     map[string][]byte
	Invalidated []uuid.UUID
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.Entries[key]
	return v, ok
}

func (c *Cache) Set(_ context.Context, key string, html []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Entries == nil {
		c.Entries = map[string][]byte{}
	}
	c.Entries[key] = html
}

func (c *Cache) InvalidateProject(_ context.Context, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidated = append(c.Invalidated, id)
	prefix := id.String() + ":"
	for k := range c.Entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.Entries, k)
		}
	}
}

// Snapshots records uploaded and deleted pages.
type Snapshots struct {
	Err     error
	Uploads map[uuid.UUID][]byte
	Deleted []string
}

func (s *Snapshots) UploadPage(_ context.Context, id uuid.UUID, html []byte) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if s.Uploads == nil {
		s.Uploads = map[uuid.UUID][]byte{}
	}
	s.Uploads[id] = html
	return "https://snapshots.example.com/pages/" + id.String() + "/index.html", nil
}

func (s *Snapshots) DeleteURL(_ context.Context, url string) error {
	s.Deleted = append(s.Deleted, url)
	return s.Err
}
