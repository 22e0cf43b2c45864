// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pagecraft/internal/models"
)

// TemplateStore reads and seeds the starter template catalog.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateColumns = `id, name, category, project_type, model_type, description, default_page, created_at, updated_at`

// List returns all templates ordered by category and name.
func (s *TemplateStore) List(ctx context.Context) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// FindByID retrieves a template by its UUID.
func (s *TemplateStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return t, err
}

// Create validates and inserts a catalog entry.
func (s *TemplateStore) Create(ctx context.Context, t *models.Template) (*models.Template, error) {
	valid, err := models.ValidateTemplate(*t)
	if err != nil {
		return nil, err
	}
	page, err := marshalJSONB(valid.DefaultPage)
	if err != nil {
		return nil, fmt.Errorf("encode default page: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO templates (name, category, project_type, model_type, description, default_page)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+templateColumns,
		valid.Name, valid.Category, valid.ProjectType, valid.ModelType, valid.Description, page,
	)
	created, err := scanTemplate(row)
	if err != nil {
		return nil, fmt.Errorf("create template %q: %w", valid.Name, err)
	}
	return created, nil
}

func scanTemplate(sc scanner) (*models.Template, error) {
	var (
		t    models.Template
		page []byte
	)
	if err := sc.Scan(
		&t.ID, &t.Name, &t.Category, &t.ProjectType, &t.ModelType,
		&t.Description, &page, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}
	if err := unmarshalJSONB(page, &t.DefaultPage); err != nil {
		return nil, fmt.Errorf("decode default page: %w", err)
	}
	return &t, nil
}
