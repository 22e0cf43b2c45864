// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives DNS-safe names from project names. Hosting
// providers use them as project and subdomain identifiers.
package slug

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxProviderName is the longest name every supported hosting provider
// accepts as a project identifier.
const MaxProviderName = 58

var (
	// separators are turned into hyphens.
	separators = regexp.MustCompile(`[\s_]+`)
	// disallowed matches anything that isn't a letter, digit, or hyphen.
	disallowed = regexp.MustCompile(`[^a-z0-9-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a lowercase hyphenated slug from s.
// Example: "Cat or Dog? 2026" → "cat-or-dog-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = separators.ReplaceAllString(result, "-")
	result = disallowed.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// ProviderName builds a hosting project name from a project's name and
// ID. The short ID suffix keeps names unique across owners; the result
// never exceeds MaxProviderName.
func ProviderName(name string, id uuid.UUID) string {
	suffix := strings.ReplaceAll(id.String(), "-", "")[:8]
	base := Generate(name)
	if base == "" {
		base = "project"
	}
	if limit := MaxProviderName - len(suffix) - 1; len(base) > limit {
		base = strings.TrimRight(base[:limit], "-")
	}
	return base + "-" + suffix
}
