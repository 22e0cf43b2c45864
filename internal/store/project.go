// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pagecraft/internal/models"
)

// ProjectStore persists projects. Updates use optimistic concurrency keyed
// on (id, updated_at); deletes are soft.
type ProjectStore struct {
	db *sql.DB
}

// NewProjectStore creates a new ProjectStore with the given database connection.
func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectColumns = `id, owner_id, name, description, category, status, project_type, template_id,
	ai_model, deployment, revenue, page_content, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new project. ID and timestamps must already be set.
func (s *ProjectStore) Create(ctx context.Context, p *models.Project) error {
	cols, err := encodeConfigs(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		p.ID, p.OwnerID, p.Name, p.Description, p.Category, p.Status, p.ProjectType, p.TemplateID,
		cols.aiModel, cols.deployment, cols.revenue, cols.pageContent,
		dbTime(p.CreatedAt), dbTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Get loads a live project by ID.
func (s *ProjectStore) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 AND deleted_at IS NULL`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return p, err
}

// Update replaces the stored project with p only if the stored updated_at
// still equals expectedUpdatedAt. A lost race yields
// ErrConcurrentModification; a missing row yields ErrNotFound.
func (s *ProjectStore) Update(ctx context.Context, id uuid.UUID, expectedUpdatedAt time.Time, p *models.Project) error {
	cols, err := encodeConfigs(p)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET
			name = $3, description = $4, category = $5, status = $6, template_id = $7,
			ai_model = $8, deployment = $9, revenue = $10, page_content = $11, updated_at = $12
		WHERE id = $1 AND updated_at = $2 AND deleted_at IS NULL
	`,
		id, dbTime(expectedUpdatedAt),
		p.Name, p.Description, p.Category, p.Status, p.TemplateID,
		cols.aiModel, cols.deployment, cols.revenue, cols.pageContent,
		dbTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND deleted_at IS NULL)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check project exists: %w", err)
	}
	if exists {
		return models.ErrConcurrentModification
	}
	return models.ErrNotFound
}

// Delete soft-deletes a project so references from elsewhere stay valid.
func (s *ProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByOwner returns an owner's live projects, newest first.
func (s *ProjectStore) ListByOwner(ctx context.Context, ownerID string, f models.ProjectFilter, pg models.Page) ([]models.Project, error) {
	pg = pg.Normalize()

	where := []string{"owner_id = $1", "deleted_at IS NULL"}
	args := []any{ownerID}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ProjectType != "" {
		args = append(args, f.ProjectType)
		where = append(where, fmt.Sprintf("project_type = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	args = append(args, pg.Limit, pg.Offset)

	query := fmt.Sprintf(`SELECT %s FROM projects WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		projectColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	return s.queryProjects(ctx, query, args...)
}

// ListPendingDeployments returns developing projects whose latest
// deployment still awaits a result, oldest first.
func (s *ProjectStore) ListPendingDeployments(ctx context.Context, limit int) ([]models.Project, error) {
	if limit <= 0 {
		limit = models.MaxPageLimit
	}
	return s.queryProjects(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE deleted_at IS NULL AND status = 'developing' AND deployment->>'status' = 'pending'
		ORDER BY updated_at
		LIMIT $1
	`, limit)
}

func (s *ProjectStore) queryProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func scanProject(sc scanner) (*models.Project, error) {
	var (
		p                                     models.Project
		aiModel, deployment, revenue, content []byte
	)
	if err := sc.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Category, &p.Status, &p.ProjectType, &p.TemplateID,
		&aiModel, &deployment, &revenue, &content, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{aiModel, &p.AIModel},
		{deployment, &p.Deployment},
		{revenue, &p.Revenue},
		{content, &p.PageContent},
	} {
		if err := unmarshalJSONB(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode project %s config: %w", p.ID, err)
		}
	}
	return &p, nil
}

type configColumns struct {
	aiModel, deployment, revenue, pageContent any
}

func encodeConfigs(p *models.Project) (configColumns, error) {
	var (
		c   configColumns
		err error
	)
	if c.aiModel, err = marshalJSONB(p.AIModel); err != nil {
		return c, fmt.Errorf("encode ai model: %w", err)
	}
	if c.deployment, err = marshalJSONB(p.Deployment); err != nil {
		return c, fmt.Errorf("encode deployment: %w", err)
	}
	if c.revenue, err = marshalJSONB(p.Revenue); err != nil {
		return c, fmt.Errorf("encode revenue: %w", err)
	}
	if c.pageContent, err = marshalJSONB(p.PageContent); err != nil {
		return c, fmt.Errorf("encode page content: %w", err)
	}
	return c, nil
}

// marshalJSONB encodes v for a nullable JSONB column; nil pointers map to NULL.
func marshalJSONB[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalJSONB(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// dbTime matches the microsecond precision of TIMESTAMPTZ so the CAS
// comparison in Update is exact.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
