// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pagecraft/internal/models"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 2 << 20
)

type apiClient struct {
	platform models.Platform
	token    string
	baseURL  string
	http     *http.Client
}

func newAPIClient(platform models.Platform, cfg ProviderConfig, defaultBase string) apiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBase
	}
	return apiClient{platform: platform, token: cfg.Token, baseURL: base, http: &http.Client{Timeout: timeout}}
}

// request is an outgoing API call. Body is JSON-encoded unless Raw is set.
type request struct {
	Method      string
	Path        string
	Body        any
	Raw         io.Reader
	ContentType string
}

// do sends req and returns the status and body. Transport failures and
// non-2xx statuses become AdapterErrors; the body is still returned so
// callers can extract provider error details.
func (c apiClient) do(ctx context.Context, op string, req request) (int, []byte, error) {
	body := req.Raw
	contentType := req.ContentType
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return 0, nil, c.fail(op, "encode request", err, false)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return 0, nil, c.fail(op, "build request", err, false)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, c.fail(op, "request failed", err, true)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, c.fail(op, "read body", err, true)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, respBody, &models.AdapterError{
			Provider:  string(c.platform),
			Op:        op,
			Reason:    fmt.Sprintf("API error (status %d): %s", resp.StatusCode, truncate(respBody, 300)),
			Temporary: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}
	return resp.StatusCode, respBody, nil
}

func (c apiClient) decode(op string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return c.fail(op, "unexpected response", err, false)
	}
	return nil
}

func (c apiClient) fail(op, reason string, err error, temporary bool) *models.AdapterError {
	return &models.AdapterError{Provider: string(c.platform), Op: op, Reason: reason, Temporary: temporary, Err: err}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
