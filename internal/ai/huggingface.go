// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pagecraft/internal/models"
)

// huggingFace checks models on the Hugging Face Hub and runs them through
// the hosted Inference API (POST /models/{id}).
type huggingFace struct {
	client
	hubURL       string
	inferenceURL string
}

func newHuggingFace(cfg AdapterConfig) *huggingFace {
	hub := strings.TrimSuffix(cfg.BaseURL, "/")
	if hub == "" {
		hub = "https://huggingface.co"
	}
	inference := strings.TrimSuffix(cfg.InferenceURL, "/")
	if inference == "" {
		inference = "https://api-inference.huggingface.co"
	}
	return &huggingFace{
		client:       newClient(models.ModelTypeHuggingFace, cfg),
		hubURL:       hub,
		inferenceURL: inference,
	}
}

func (a *huggingFace) Name() models.ModelType { return models.ModelTypeHuggingFace }

type hfModelInfo struct {
	ID          string `json:"id"`
	PipelineTag string `json:"pipeline_tag"`
	Private     bool   `json:"private"`
	Disabled    bool   `json:"disabled"`
}

// ValidateModel looks the model up via GET /api/models/{org}/{model}.
func (a *huggingFace) ValidateModel(ctx context.Context, cfg models.AIModelConfig) error {
	var info hfModelInfo
	status, err := a.do(ctx, "validate", http.MethodGet, a.hubURL+"/api/models/"+cfg.ModelID, nil, &info)
	switch {
	case status == http.StatusNotFound:
		return &models.AdapterError{Provider: string(a.Name()), Op: "validate", Reason: "model " + cfg.ModelID + " not found"}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &models.AdapterError{Provider: string(a.Name()), Op: "validate", Reason: "model " + cfg.ModelID + " is private or gated"}
	case err != nil:
		return err
	}
	if info.Disabled {
		return &models.AdapterError{Provider: string(a.Name()), Op: "validate", Reason: "model " + cfg.ModelID + " is disabled"}
	}
	return nil
}

// Predict sends the text, or the image URL, as the "inputs" field.
func (a *huggingFace) Predict(ctx context.Context, cfg models.AIModelConfig, in SampleInput) ([]Prediction, error) {
	input := in.Text
	if input == "" {
		input = in.ImageURL
	}
	if input == "" {
		return nil, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "input", Message: "text or imageUrl is required"}
	}

	var raw json.RawMessage
	if _, err := a.do(ctx, "predict", http.MethodPost, a.inferenceURL+"/models/"+cfg.ModelID, map[string]string{"inputs": input}, &raw); err != nil {
		return nil, err
	}

	preds, err := decodeLabelScores(raw)
	if err != nil {
		return nil, a.fail("predict", "unexpected inference response", err, false)
	}
	return applyThreshold(preds, cfg.Configuration), nil
}

// decodeLabelScores accepts both [{label,score}] and [[{label,score}]],
// the two shapes classification pipelines return.
func decodeLabelScores(raw json.RawMessage) ([]Prediction, error) {
	var flat []Prediction
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]Prediction
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	var out []Prediction
	for _, batch := range nested {
		out = append(out, batch...)
	}
	return out, nil
}
