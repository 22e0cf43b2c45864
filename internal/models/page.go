// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"unicode/utf8"
)

// BodyFormat tells the renderer how to interpret PageContent.Body.
type BodyFormat string

const (
	BodyFormatText     BodyFormat = "text"
	BodyFormatMarkdown BodyFormat = "markdown"
)

const (
	maxTitleLength   = 200
	maxHeadingLength = 200
	maxBodyLength    = 20000
)

// PageContent is the editable content of a NO_CODE page. Empty fields fall
// back to locale defaults at render time.
type PageContent struct {
	Title      string     `json:"title,omitempty"`
	Heading    string     `json:"heading,omitempty"`
	Body       string     `json:"body,omitempty"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	BodyFormat BodyFormat `json:"bodyFormat,omitempty"`
}

// ValidatePageContent trims and bounds c.
func ValidatePageContent(c PageContent) (PageContent, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Heading = strings.TrimSpace(c.Heading)
	c.ImageURL = strings.TrimSpace(c.ImageURL)

	if utf8.RuneCountInString(c.Title) > maxTitleLength {
		return c, invalid(KindInvalidPageContent, "title", "must be at most %d characters", maxTitleLength)
	}
	if utf8.RuneCountInString(c.Heading) > maxHeadingLength {
		return c, invalid(KindInvalidPageContent, "heading", "must be at most %d characters", maxHeadingLength)
	}
	if utf8.RuneCountInString(c.Body) > maxBodyLength {
		return c, invalid(KindInvalidPageContent, "body", "must be at most %d characters", maxBodyLength)
	}
	if c.ImageURL != "" {
		if _, err := parseAbsoluteURL(c.ImageURL); err != nil {
			return c, invalid(KindInvalidPageContent, "imageUrl", "%s", err.Error())
		}
	}
	switch c.BodyFormat {
	case "":
		c.BodyFormat = BodyFormatText
	case BodyFormatText, BodyFormatMarkdown:
	default:
		return c, invalid(KindInvalidPageContent, "bodyFormat", "must be text or markdown")
	}
	return c, nil
}
