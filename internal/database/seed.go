// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"fmt"
	"log/slog"

	"pagecraft/internal/models"
)

// starterTemplates is the catalog users can pick from when creating a project.
var starterTemplates = []models.Template{
	{
		Name:        "Image Classifier Page",
		Category:    "vision",
		ProjectType: models.ProjectTypeNoCode,
		ModelType:   models.ModelTypeTeachableMachine,
		Description: "A single page that lets visitors upload a photo and see what your Teachable Machine model thinks it is.",
		DefaultPage: &models.PageContent{
			Title:      "What is in this picture?",
			Heading:    "Try my image classifier",
			Body:       "Upload a photo below and the model will tell you what it sees.",
			BodyFormat: models.BodyFormatText,
		},
	},
	{
		Name:        "Sentiment Checker",
		Category:    "text",
		ProjectType: models.ProjectTypeNoCode,
		ModelType:   models.ModelTypeHuggingFace,
		Description: "Landing page for a Hugging Face text classification model.",
		DefaultPage: &models.PageContent{
			Title:      "Sentiment Checker",
			Heading:    "How does this text feel?",
			Body:       "Paste a sentence and find out whether it reads **positive** or **negative**.",
			BodyFormat: models.BodyFormatMarkdown,
		},
	},
	{
		Name:        "Custom Model Starter",
		Category:    "starter",
		ProjectType: models.ProjectTypeLowCode,
		ModelType:   models.ModelTypeCustom,
		Description: "Bring your own repository and inference endpoint; we handle hosting and ads.",
	},
}

// TemplateCatalog is the store the seed writes through.
type TemplateCatalog interface {
	List(ctx context.Context) ([]models.Template, error)
	Create(ctx context.Context, t *models.Template) (*models.Template, error)
}

// Seed adds every starter template the catalog does not have yet, matched
// by name, and returns how many it created. Existing entries are left
// untouched.
func Seed(ctx context.Context, catalog TemplateCatalog) (int, error) {
	existing, err := catalog.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed list templates: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t.Name] = true
	}

	created := 0
	for _, t := range starterTemplates {
		if have[t.Name] {
			continue
		}
		if _, err := catalog.Create(ctx, &t); err != nil {
			return created, fmt.Errorf("seed template %q: %w", t.Name, err)
		}
		created++
	}

	if created == 0 {
		slog.Info("template catalog already seeded, skipping")
		return 0, nil
	}
	slog.Info("template catalog seeded", "created", created, "templates", len(starterTemplates))
	return created, nil
}
