// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ModelType identifies the host of a user's AI model.
type ModelType string

const (
	ModelTypeTeachableMachine ModelType = "teachable-machine"
	ModelTypeHuggingFace      ModelType = "huggingface"
	ModelTypeCustom           ModelType = "custom"
)

// Valid reports whether t is a supported model host.
func (t ModelType) Valid() bool {
	switch t {
	case ModelTypeTeachableMachine, ModelTypeHuggingFace, ModelTypeCustom:
		return true
	}
	return false
}

const (
	teachableMachineHost = "teachablemachine.withgoogle.com"
	huggingFaceHost      = "huggingface.co"

	maxClassLabels   = 100
	maxLabelLength   = 100
	maxInputSideSize = 4096
)

var (
	teachablePath   = regexp.MustCompile(`^/models/([A-Za-z0-9_-]+)/$`)
	huggingFacePath = regexp.MustCompile(`^/([A-Za-z0-9][A-Za-z0-9._-]*)/([A-Za-z0-9][A-Za-z0-9._-]*)/?$`)
)

// ImageSize is the input resolution an image model expects.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ModelSettings holds the model-specific knobs. Unknown keys are rejected
// when decoding from the API.
type ModelSettings struct {
	ClassLabels []string   `json:"classLabels,omitempty"`
	InputSize   *ImageSize `json:"inputSize,omitempty"`
	Threshold   *float64   `json:"threshold,omitempty"`
}

// AIModelConfig binds a project to an externally hosted model.
type AIModelConfig struct {
	Type          ModelType     `json:"type"`
	ModelURL      string        `json:"modelUrl"`
	ModelID       string        `json:"modelId,omitempty"`
	Configuration ModelSettings `json:"configuration"`
	VerifiedAt    *time.Time    `json:"verifiedAt,omitempty"`
	LastError     string        `json:"lastError,omitempty"`
}

func (c AIModelConfig) clone() AIModelConfig {
	out := c
	if c.Configuration.ClassLabels != nil {
		out.Configuration.ClassLabels = append([]string(nil), c.Configuration.ClassLabels...)
	}
	if c.Configuration.InputSize != nil {
		s := *c.Configuration.InputSize
		out.Configuration.InputSize = &s
	}
	if c.Configuration.Threshold != nil {
		th := *c.Configuration.Threshold
		out.Configuration.Threshold = &th
	}
	if c.VerifiedAt != nil {
		v := *c.VerifiedAt
		out.VerifiedAt = &v
	}
	return out
}

// ValidateAIModel checks the shape of cfg and returns a normalized copy
// with the model identifier derived from the URL. Verification state is
// cleared; it is only set after the model host confirms the model.
func ValidateAIModel(cfg AIModelConfig) (AIModelConfig, error) {
	out := cfg.clone()
	out.VerifiedAt = nil
	out.LastError = ""
	out.ModelURL = strings.TrimSpace(cfg.ModelURL)

	if !out.Type.Valid() {
		return out, invalid(KindInvalidModelConfig, "type", "unsupported model type %q", cfg.Type)
	}
	u, err := parseAbsoluteURL(out.ModelURL)
	if err != nil {
		return out, invalid(KindInvalidModelConfig, "modelUrl", "%s", err.Error())
	}

	var derived string
	switch out.Type {
	case ModelTypeTeachableMachine:
		if u.Scheme != "https" || strings.ToLower(u.Host) != teachableMachineHost {
			return out, invalid(KindInvalidModelConfig, "modelUrl", "must be an https://%s/models/<id>/ URL", teachableMachineHost)
		}
		m := teachablePath.FindStringSubmatch(u.Path)
		if m == nil {
			return out, invalid(KindInvalidModelConfig, "modelUrl", "must match /models/<id>/ with a trailing slash")
		}
		derived = m[1]
	case ModelTypeHuggingFace:
		if u.Scheme != "https" || strings.ToLower(u.Host) != huggingFaceHost {
			return out, invalid(KindInvalidModelConfig, "modelUrl", "must be an https://%s/<org>/<model> URL", huggingFaceHost)
		}
		m := huggingFacePath.FindStringSubmatch(u.Path)
		if m == nil {
			return out, invalid(KindInvalidModelConfig, "modelUrl", "must match /<org>/<model>")
		}
		derived = m[1] + "/" + m[2]
	case ModelTypeCustom:
		derived = u.Host + strings.TrimSuffix(u.Path, "/")
	}

	out.ModelID = strings.TrimSpace(out.ModelID)
	if out.ModelID == "" {
		out.ModelID = derived
	} else if out.Type != ModelTypeCustom && out.ModelID != derived {
		return out, invalid(KindInvalidModelConfig, "modelId", "does not match the model URL")
	}

	if err := validateSettings(out.Configuration); err != nil {
		return out, err
	}
	return out, nil
}

func validateSettings(s ModelSettings) error {
	if len(s.ClassLabels) > maxClassLabels {
		return invalid(KindInvalidModelConfig, "configuration.classLabels", "at most %d labels allowed", maxClassLabels)
	}
	seen := make(map[string]struct{}, len(s.ClassLabels))
	for _, l := range s.ClassLabels {
		l = strings.TrimSpace(l)
		if l == "" {
			return invalid(KindInvalidModelConfig, "configuration.classLabels", "labels must not be empty")
		}
		if len(l) > maxLabelLength {
			return invalid(KindInvalidModelConfig, "configuration.classLabels", "label %q is too long", l)
		}
		if _, dup := seen[l]; dup {
			return invalid(KindInvalidModelConfig, "configuration.classLabels", "duplicate label %q", l)
		}
		seen[l] = struct{}{}
	}
	if sz := s.InputSize; sz != nil {
		if sz.Width < 1 || sz.Height < 1 || sz.Width > maxInputSideSize || sz.Height > maxInputSideSize {
			return invalid(KindInvalidModelConfig, "configuration.inputSize", "width and height must be within 1..%d", maxInputSideSize)
		}
	}
	if th := s.Threshold; th != nil && (*th < 0 || *th > 1) {
		return invalid(KindInvalidModelConfig, "configuration.threshold", "must be within 0..1")
	}
	return nil
}

type urlError string

func (e urlError) Error() string { return string(e) }

// parseAbsoluteURL accepts only http(s) URLs with a host.
// IsWebURL reports whether raw is an absolute http or https URL with a host.
func IsWebURL(raw string) bool {
	_, err := parseAbsoluteURL(raw)
	return err == nil
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, urlError("is required")
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, urlError("must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, urlError("must use http or https")
	}
	return u, nil
}
