// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package revenue verifies ad network publisher accounts before they are
// attached to a project.
package revenue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pagecraft/internal/models"
)

// Verifier confirms that a publisher id belongs to an active account.
type Verifier interface {
	VerifyPublisherID(ctx context.Context, publisherID string) error
}

// AdSense checks publisher ids against the AdSense Management API
// (GET /v2/accounts/{pub-id}). Without an access token only the id's
// shape, already enforced by validation, is trusted.
type AdSense struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewAdSense creates a verifier. An empty baseURL selects the public API.
func NewAdSense(token, baseURL string) *AdSense {
	if baseURL == "" {
		baseURL = "https://adsense.googleapis.com"
	}
	return &AdSense{
		token:   token,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type adsenseAccount struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

func (a *AdSense) VerifyPublisherID(ctx context.Context, publisherID string) error {
	if a.token == "" {
		slog.Debug("adsense verification skipped, no access token", "publisher", publisherID)
		return nil
	}

	reqURL := a.baseURL + "/v2/accounts/" + url.PathEscape(publisherID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return a.fail("build request", err, false)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return a.fail("request failed", err, true)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return &models.AdapterError{Provider: "adsense", Op: "verify", Reason: "publisher id " + publisherID + " not found"}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &models.AdapterError{Provider: "adsense", Op: "verify", Reason: "publisher account is not accessible with the configured credentials"}
	default:
		return &models.AdapterError{
			Provider:  "adsense",
			Op:        "verify",
			Reason:    fmt.Sprintf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body))),
			Temporary: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var acct adsenseAccount
	if err := json.Unmarshal(body, &acct); err != nil {
		return a.fail("unexpected response", err, false)
	}
	if acct.State != "" && acct.State != "READY" {
		return &models.AdapterError{Provider: "adsense", Op: "verify", Reason: "publisher account state is " + acct.State}
	}
	return nil
}

func (a *AdSense) fail(reason string, err error, temporary bool) *models.AdapterError {
	return &models.AdapterError{Provider: "adsense", Op: "verify", Reason: reason, Temporary: temporary, Err: err}
}
