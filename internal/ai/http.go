// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

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
	defaultTimeout = 20 * time.Second
	maxBodyBytes   = 4 << 20
)

// client is the HTTP plumbing shared by the adapters.
type client struct {
	provider models.ModelType
	token    string
	http     *http.Client
}

func newClient(provider models.ModelType, cfg AdapterConfig) client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return client{provider: provider, token: cfg.Token, http: &http.Client{Timeout: timeout}}
}

// do performs a request and decodes a JSON response into out when out is
// non-nil. Non-2xx statuses become an AdapterError carrying the body.
func (c client) do(ctx context.Context, op, method, url string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, c.fail(op, "encode request", err, false)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, c.fail(op, "build request", err, false)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, c.fail(op, "request failed", err, true)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, c.fail(op, "read body", err, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &models.AdapterError{
			Provider:  string(c.provider),
			Op:        op,
			Reason:    fmt.Sprintf("API error (status %d): %s", resp.StatusCode, truncate(respBody, 300)),
			Temporary: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, c.fail(op, "unexpected response", err, false)
		}
	}
	return resp.StatusCode, nil
}

func (c client) fail(op, reason string, err error, temporary bool) *models.AdapterError {
	return &models.AdapterError{Provider: string(c.provider), Op: op, Reason: reason, Temporary: temporary, Err: err}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
