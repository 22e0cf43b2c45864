// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"regexp"
	"strings"
	"time"
)

// AdPosition is where an ad unit is placed on the generated page.
type AdPosition string

const (
	AdPositionHeader    AdPosition = "header"
	AdPositionSidebar   AdPosition = "sidebar"
	AdPositionInContent AdPosition = "in-content"
	AdPositionFooter    AdPosition = "footer"
)

// Valid reports whether p is a known placement.
func (p AdPosition) Valid() bool {
	switch p {
	case AdPositionHeader, AdPositionSidebar, AdPositionInContent, AdPositionFooter:
		return true
	}
	return false
}

const maxAdUnits = 10

var (
	publisherIDPattern = regexp.MustCompile(`^pub-[0-9]{1,20}$`)
	adSizePattern      = regexp.MustCompile(`^[1-9][0-9]{0,3}x[1-9][0-9]{0,3}$`)
	adSlotPattern      = regexp.MustCompile(`^[0-9]{1,20}$`)
)

// AdUnit is a single ad slot.
type AdUnit struct {
	Position AdPosition `json:"position"`
	Size     string     `json:"size"`
	Code     string     `json:"code"`
}

// RevenueConfig holds the ad monetization settings of a project.
type RevenueConfig struct {
	AdsenseEnabled     bool       `json:"adsenseEnabled"`
	AdsensePublisherID string     `json:"adsensePublisherId,omitempty"`
	AdUnits            []AdUnit   `json:"adUnits,omitempty"`
	VerifiedAt         *time.Time `json:"verifiedAt,omitempty"`
	LastError          string     `json:"lastError,omitempty"`
}

func (c RevenueConfig) clone() RevenueConfig {
	out := c
	if c.AdUnits != nil {
		out.AdUnits = append([]AdUnit(nil), c.AdUnits...)
	}
	if c.VerifiedAt != nil {
		t := *c.VerifiedAt
		out.VerifiedAt = &t
	}
	return out
}

// ValidateRevenue checks cfg. An enabled config needs a well-formed
// publisher id; a disabled one must not carry one.
func ValidateRevenue(cfg RevenueConfig) (RevenueConfig, error) {
	out := cfg.clone()
	out.VerifiedAt = nil
	out.LastError = ""
	out.AdsensePublisherID = strings.TrimSpace(cfg.AdsensePublisherID)

	if out.AdsenseEnabled {
		if !publisherIDPattern.MatchString(out.AdsensePublisherID) {
			return out, invalid(KindInvalidRevenueConfig, "adsensePublisherId", "must look like pub-<digits>")
		}
	} else if out.AdsensePublisherID != "" {
		return out, invalid(KindInvalidRevenueConfig, "adsensePublisherId", "must be empty when ads are disabled")
	}

	if len(out.AdUnits) > maxAdUnits {
		return out, invalid(KindInvalidRevenueConfig, "adUnits", "at most %d ad units allowed", maxAdUnits)
	}
	for i, u := range out.AdUnits {
		u.Size = strings.ToLower(strings.TrimSpace(u.Size))
		u.Code = strings.TrimSpace(u.Code)
		if !u.Position.Valid() {
			return out, invalid(KindInvalidRevenueConfig, "adUnits.position", "unknown position %q", u.Position)
		}
		if u.Size != "responsive" && !adSizePattern.MatchString(u.Size) {
			return out, invalid(KindInvalidRevenueConfig, "adUnits.size", "must be responsive or <width>x<height>")
		}
		if !adSlotPattern.MatchString(u.Code) {
			return out, invalid(KindInvalidRevenueConfig, "adUnits.code", "must be a numeric ad slot")
		}
		out.AdUnits[i] = u
	}
	return out, nil
}

// UnitsAt returns the ad units placed at pos, in declaration order.
func (c *RevenueConfig) UnitsAt(pos AdPosition) []AdUnit {
	if c == nil || !c.AdsenseEnabled {
		return nil
	}
	var units []AdUnit
	for _, u := range c.AdUnits {
		if u.Position == pos {
			units = append(units, u)
		}
	}
	return units
}
