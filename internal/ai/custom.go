// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"net/http"

	"pagecraft/internal/models"
)

// custom talks to a user-operated HTTP endpoint. A GET on the model URL
// must succeed; predictions are a JSON POST to the same URL answering
// either {"predictions":[...]} or a bare [{label,score}] array.
type custom struct {
	client
}

func newCustom(cfg AdapterConfig) *custom {
	return &custom{client: newClient(models.ModelTypeCustom, cfg)}
}

func (a *custom) Name() models.ModelType { return models.ModelTypeCustom }

func (a *custom) ValidateModel(ctx context.Context, cfg models.AIModelConfig) error {
	_, err := a.do(ctx, "validate", http.MethodGet, cfg.ModelURL, nil, nil)
	return err
}

func (a *custom) Predict(ctx context.Context, cfg models.AIModelConfig, in SampleInput) ([]Prediction, error) {
	if in.Text == "" && in.ImageURL == "" {
		return nil, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "input", Message: "text or imageUrl is required"}
	}

	var raw json.RawMessage
	if _, err := a.do(ctx, "predict", http.MethodPost, cfg.ModelURL, in, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		Predictions []Prediction `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Predictions != nil {
		return applyThreshold(wrapped.Predictions, cfg.Configuration), nil
	}
	preds, err := decodeLabelScores(raw)
	if err != nil {
		return nil, a.fail("predict", "unexpected prediction response", err, false)
	}
	return applyThreshold(preds, cfg.Configuration), nil
}
