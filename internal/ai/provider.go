// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai talks to the hosts of user-supplied AI models (Teachable
// Machine, Hugging Face, custom HTTP endpoints). Each host implements the
// ModelAdapter interface, and the Registry dispatches on the model type.
package ai

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"pagecraft/internal/models"
)

// SampleInput is one prediction request. Image models take ImageURL,
// text models take Text.
type SampleInput struct {
	ImageURL string `json:"imageUrl,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Prediction is one scored label.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ModelAdapter defines the interface every model host must implement.
// Failures are returned as *models.AdapterError.
type ModelAdapter interface {
	// ValidateModel confirms the model exists and is reachable.
	ValidateModel(ctx context.Context, cfg models.AIModelConfig) error

	// Predict runs the model on one input.
	Predict(ctx context.Context, cfg models.AIModelConfig, in SampleInput) ([]Prediction, error)

	// Name returns the model type this adapter serves.
	Name() models.ModelType
}

// AdapterConfig holds the credentials and endpoints of a single host.
// Empty URLs select the public defaults.
type AdapterConfig struct {
	Token        string
	BaseURL      string
	InferenceURL string
	Timeout      time.Duration
}

// Registry maps model types to adapters. All methods are safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[models.ModelType]ModelAdapter
}

// NewRegistry creates a registry with an adapter for every supported model
// type. None of the hosts require credentials to be present.
func NewRegistry(configs map[models.ModelType]AdapterConfig) *Registry {
	r := &Registry{adapters: make(map[models.ModelType]ModelAdapter)}
	r.Register(newTeachableMachine(configs[models.ModelTypeTeachableMachine]))
	r.Register(newHuggingFace(configs[models.ModelTypeHuggingFace]))
	r.Register(newCustom(configs[models.ModelTypeCustom]))
	return r
}

// Register adds or replaces the adapter for a.Name().
func (r *Registry) Register(a ModelAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Adapter returns the adapter for t.
func (r *Registry) Adapter(t models.ModelType) (ModelAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[t]
	if !ok {
		return nil, &models.AdapterError{Provider: string(t), Op: "lookup", Reason: fmt.Sprintf("no adapter configured for %q", t)}
	}
	return a, nil
}

// ValidateModel dispatches to the adapter for cfg.Type.
func (r *Registry) ValidateModel(ctx context.Context, cfg models.AIModelConfig) error {
	a, err := r.Adapter(cfg.Type)
	if err != nil {
		return err
	}
	return a.ValidateModel(ctx, cfg)
}

// Predict dispatches to the adapter for cfg.Type.
func (r *Registry) Predict(ctx context.Context, cfg models.AIModelConfig, in SampleInput) ([]Prediction, error) {
	a, err := r.Adapter(cfg.Type)
	if err != nil {
		return nil, err
	}
	return a.Predict(ctx, cfg, in)
}

// Available returns the registered model types in sorted order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for t := range r.adapters {
		names = append(names, string(t))
	}
	slices.Sort(names)
	return names
}

// applyThreshold drops predictions under the configured threshold and
// sorts the rest by descending score.
func applyThreshold(preds []Prediction, settings models.ModelSettings) []Prediction {
	out := preds[:0:0]
	for _, p := range preds {
		if settings.Threshold != nil && p.Score < *settings.Threshold {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b Prediction) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return out
}
