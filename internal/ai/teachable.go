// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"pagecraft/internal/models"
)

// teachableMachine checks exported Teachable Machine models. The model
// itself runs in the visitor's browser, so there is no server-side
// inference.
type teachableMachine struct {
	client
	baseURL string
}

func newTeachableMachine(cfg AdapterConfig) *teachableMachine {
	return &teachableMachine{
		client:  newClient(models.ModelTypeTeachableMachine, cfg),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

func (a *teachableMachine) Name() models.ModelType { return models.ModelTypeTeachableMachine }

type tmModel struct {
	ModelTopology   map[string]any `json:"modelTopology"`
	WeightsManifest []any          `json:"weightsManifest"`
}

type tmMetadata struct {
	Labels    []string `json:"labels"`
	ImageSize int      `json:"imageSize"`
}

// ValidateModel fetches model.json and metadata.json from the share URL
// and checks configured class labels against the exported ones.
func (a *teachableMachine) ValidateModel(ctx context.Context, cfg models.AIModelConfig) error {
	base, err := a.resolve(cfg.ModelURL)
	if err != nil {
		return err
	}

	var model tmModel
	if status, err := a.do(ctx, "validate", http.MethodGet, base+"model.json", nil, &model); err != nil {
		if status == http.StatusNotFound {
			return &models.AdapterError{Provider: string(a.Name()), Op: "validate", Reason: "model not found; is it shared publicly?"}
		}
		return err
	}
	if len(model.ModelTopology) == 0 {
		return &models.AdapterError{Provider: string(a.Name()), Op: "validate", Reason: "model.json has no topology"}
	}

	var meta tmMetadata
	if _, err := a.do(ctx, "validate", http.MethodGet, base+"metadata.json", nil, &meta); err != nil {
		return err
	}
	if len(meta.Labels) == 0 {
		return &models.AdapterError{Provider: string(a.Name()), Op: "validate", Reason: "metadata.json lists no labels"}
	}

	if want := cfg.Configuration.ClassLabels; len(want) > 0 {
		have := slices.Clone(meta.Labels)
		want = slices.Clone(want)
		slices.Sort(have)
		slices.Sort(want)
		if !slices.Equal(have, want) {
			return &models.AdapterError{
				Provider: string(a.Name()),
				Op:       "validate",
				Reason:   fmt.Sprintf("class labels %v do not match the model's labels %v", cfg.Configuration.ClassLabels, meta.Labels),
			}
		}
	}
	return nil
}

// Predict is unsupported: Teachable Machine models are executed by the
// generated page in the browser.
func (a *teachableMachine) Predict(_ context.Context, _ models.AIModelConfig, _ SampleInput) ([]Prediction, error) {
	return nil, &models.AdapterError{
		Provider: string(a.Name()),
		Op:       "predict",
		Reason:   "teachable machine models run in the browser; server-side prediction is not available",
	}
}

// resolve returns the model's base URL with a trailing slash, rewritten
// onto baseURL when one is configured.
func (a *teachableMachine) resolve(modelURL string) (string, error) {
	u, err := url.Parse(modelURL)
	if err != nil {
		return "", &models.AdapterError{Provider: string(a.Name()), Op: "validate", Reason: "invalid model URL", Err: err}
	}
	if a.baseURL != "" {
		return a.baseURL + strings.TrimSuffix(u.Path, "/") + "/", nil
	}
	return strings.TrimSuffix(u.String(), "/") + "/", nil
}
