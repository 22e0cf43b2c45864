// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package projects

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"pagecraft/internal/ai"
	"pagecraft/internal/cache"
	"pagecraft/internal/engine"
	"pagecraft/internal/models"
)

// RenderPageContent renders content without touching any project.
func (s *Service) RenderPageContent(_ context.Context, content models.PageContent, locale string) ([]byte, error) {
	pc, err := models.ValidatePageContent(content)
	if err != nil {
		return nil, err
	}
	return engine.RenderPage(pc, engine.RenderOptions{Locale: locale})
}

// Preview renders the owner's NO_CODE project with its ads and model
// widget. Results are cached per project revision and locale.
func (s *Service) Preview(ctx context.Context, ownerID string, id uuid.UUID, locale string) ([]byte, error) {
	p, err := s.GetProject(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !p.IsNoCode() {
		return nil, &models.TransitionError{From: p.Status, Event: "preview", Reason: "LOW_CODE projects are not rendered by the platform"}
	}

	locale = engine.NormalizeLocale(locale)
	key := cache.PreviewKey(p.ID, locale, p.UpdatedAt)
	if s.cache != nil {
		if html, ok := s.cache.Get(ctx, key); ok {
			return html, nil
		}
	}

	content, err := s.contentFor(ctx, p)
	if err != nil {
		return nil, err
	}
	html, err := engine.RenderPage(content, engine.RenderOptions{Locale: locale, Revenue: p.Revenue, Model: p.AIModel})
	if err != nil {
		return nil, fmt.Errorf("render preview for project %s: %w", id, err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, html)
	}
	return html, nil
}

// Predict runs the project's attached model on one input.
func (s *Service) Predict(ctx context.Context, ownerID string, id uuid.UUID, in ai.SampleInput) ([]ai.Prediction, error) {
	p, err := s.GetProject(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.ProjectStatusArchived {
		return nil, &models.TransitionError{From: p.Status, Event: "predict", Reason: "project is archived"}
	}
	if p.AIModel == nil {
		return nil, &models.TransitionError{From: p.Status, Event: "predict", Reason: "no AI model attached"}
	}
	if in.ImageURL == "" && in.Text == "" {
		return nil, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "input", Message: "imageUrl or text is required"}
	}

	preds, err := s.models.Predict(ctx, *p.AIModel, in)
	if err != nil {
		return nil, err
	}
	slog.Debug("prediction served", "project_id", id, "type", p.AIModel.Type, "labels", len(preds))
	return preds, nil
}
