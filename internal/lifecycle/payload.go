// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package lifecycle

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"pagecraft/internal/models"
)

// DecodePayload decodes raw into the payload shape ev expects. Unknown
// fields and trailing data are rejected.
func DecodePayload(ev Event, raw json.RawMessage) (Payload, error) {
	var p Payload
	raw = bytes.TrimSpace(raw)
	empty := len(raw) == 0 || bytes.Equal(raw, []byte("null"))

	var target any
	switch ev {
	case EventAttachAIModel:
		p.AIModel = &models.AIModelConfig{}
		target = p.AIModel
	case EventStartDeployment, EventRedeploy:
		if empty {
			return p, nil
		}
		p.Deployment = &models.DeploymentConfig{}
		target = p.Deployment
	case EventAttachRevenueConfig:
		p.Revenue = &models.RevenueConfig{}
		target = p.Revenue
	case EventUpdatePageContent:
		p.PageContent = &models.PageContent{}
		target = p.PageContent
	case EventUpdateDetails:
		p.Details = &models.ProjectDetails{}
		target = p.Details
	case EventDeploymentSucceeded, EventDeploymentFailed:
		p.Outcome = &models.DeploymentOutcome{}
		target = p.Outcome
	case EventBeginDevelopment, EventArchive, EventRestore:
		if !empty && !bytes.Equal(raw, []byte("{}")) {
			return p, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "payload", Message: "event takes no payload"}
		}
		return p, nil
	default:
		return p, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "event", Message: "unknown event " + string(ev)}
	}

	if empty {
		return Payload{}, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "payload", Message: "is required"}
	}
	if err := strictDecode(raw, target); err != nil {
		return Payload{}, &models.ValidationError{Kind: models.KindInvalidPayload, Field: "payload", Message: err.Error()}
	}
	return p, nil
}

func strictDecode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing data")
	}
	return nil
}
