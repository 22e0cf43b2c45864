// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"testing"
)

func TestValidateRevenue(t *testing.T) {
	tests := []struct {
		name      string
		cfg       RevenueConfig
		wantField string
	}{
		{name: "enabled with publisher", cfg: RevenueConfig{AdsenseEnabled: true, AdsensePublisherID: "pub-1234567890"}},
		{name: "disabled and empty", cfg: RevenueConfig{}},
		{name: "enabled without publisher", cfg: RevenueConfig{AdsenseEnabled: true}, wantField: "adsensePublisherId"},
		{name: "malformed publisher", cfg: RevenueConfig{AdsenseEnabled: true, AdsensePublisherID: "ca-pub-12"}, wantField: "adsensePublisherId"},
		{name: "disabled with publisher", cfg: RevenueConfig{AdsensePublisherID: "pub-1"}, wantField: "adsensePublisherId"},
		{
			name: "valid units",
			cfg: RevenueConfig{AdsenseEnabled: true, AdsensePublisherID: "pub-1", AdUnits: []AdUnit{
				{Position: AdPositionHeader, Size: "728x90", Code: "111"},
				{Position: AdPositionSidebar, Size: "Responsive", Code: "222"},
			}},
		},
		{
			name: "bad position",
			cfg: RevenueConfig{AdsenseEnabled: true, AdsensePublisherID: "pub-1", AdUnits: []AdUnit{
				{Position: "popup", Size: "728x90", Code: "111"},
			}},
			wantField: "adUnits.position",
		},
		{
			name: "bad size",
			cfg: RevenueConfig{AdsenseEnabled: true, AdsensePublisherID: "pub-1", AdUnits: []AdUnit{
				{Position: AdPositionFooter, Size: "big", Code: "111"},
			}},
			wantField: "adUnits.size",
		},
		{
			name: "bad slot code",
			cfg: RevenueConfig{AdsenseEnabled: true, AdsensePublisherID: "pub-1", AdUnits: []AdUnit{
				{Position: AdPositionFooter, Size: "300x250", Code: "<script>"},
			}},
			wantField: "adUnits.code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateRevenue(tt.cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("field: got %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestRevenueUnitsAt(t *testing.T) {
	cfg := &RevenueConfig{AdsenseEnabled: true, AdsensePublisherID: "pub-1", AdUnits: []AdUnit{
		{Position: AdPositionHeader, Size: "728x90", Code: "1"},
		{Position: AdPositionFooter, Size: "728x90", Code: "2"},
		{Position: AdPositionHeader, Size: "responsive", Code: "3"},
	}}

	got := cfg.UnitsAt(AdPositionHeader)
	if len(got) != 2 || got[0].Code != "1" || got[1].Code != "3" {
		t.Errorf("header units: got %+v", got)
	}

	cfg.AdsenseEnabled = false
	if got := cfg.UnitsAt(AdPositionHeader); got != nil {
		t.Errorf("disabled config should yield no units, got %+v", got)
	}

	var nilCfg *RevenueConfig
	if got := nilCfg.UnitsAt(AdPositionFooter); got != nil {
		t.Errorf("nil config should yield no units, got %+v", got)
	}
}
