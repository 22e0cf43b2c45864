// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders the public page of a NO_CODE project. Rendering
// is deterministic: identical content and options always produce
// byte-identical HTML, so outputs can be cached and content-addressed.
package engine

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"
	"strings"

	"pagecraft/internal/markdown"
	"pagecraft/internal/models"
)

//go:embed layout.html
var layoutHTML string

var layout = template.Must(template.New("page").Parse(layoutHTML))

// Supported locales. Anything else falls back to DefaultLocale.
const (
	LocaleEnglish = "en"
	LocaleKorean  = "ko"
	DefaultLocale = LocaleEnglish
)

type localeText struct {
	Title   string
	Heading string
	Body    string
	Prompt  string
}

var defaults = map[string]localeText{
	LocaleEnglish: {
		Title:   "My No-Code Page",
		Heading: "Welcome!",
		Body:    "This page was built without writing a single line of code.",
		Prompt:  "Upload an image to try the model",
	},
	LocaleKorean: {
		Title:   "나의 노코드 페이지",
		Heading: "환영합니다!",
		Body:    "코드 한 줄 없이 만든 페이지입니다.",
		Prompt:  "이미지를 업로드해 모델을 사용해 보세요",
	},
}

// NormalizeLocale maps a language tag such as "ko-KR" to a supported
// locale.
func NormalizeLocale(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	if _, ok := defaults[tag]; ok {
		return tag
	}
	return DefaultLocale
}

// Defaults returns the fallback page content for locale.
func Defaults(locale string) models.PageContent {
	d := defaults[NormalizeLocale(locale)]
	return models.PageContent{Title: d.Title, Heading: d.Heading, Body: d.Body, BodyFormat: models.BodyFormatText}
}

// RenderOptions are the inputs besides page content.
type RenderOptions struct {
	Locale  string
	Revenue *models.RevenueConfig
	Model   *models.AIModelConfig
}

type adSlot struct {
	Client     string
	Slot       string
	Responsive bool
	Width      int
	Height     int
}

type adPlacements struct {
	Client    string
	Header    []adSlot
	Sidebar   []adSlot
	InContent []adSlot
	Footer    []adSlot
}

type modelWidget struct {
	URL       string
	Threshold float64
	Prompt    string
}

type pageData struct {
	Lang       string
	Title      string
	Heading    string
	ImageURL   string
	BodyHTML   template.HTML
	Paragraphs [][]string
	Ads        adPlacements
	Model      *modelWidget
}

// RenderPage produces the complete HTML document for content. Empty title,
// heading and body fall back to the locale defaults.
func RenderPage(content models.PageContent, opts RenderOptions) ([]byte, error) {
	locale := NormalizeLocale(opts.Locale)
	text := defaults[locale]

	data := pageData{
		Lang:     locale,
		Title:    firstNonEmpty(content.Title, text.Title),
		Heading:  firstNonEmpty(content.Heading, text.Heading),
		Ads:      placements(opts.Revenue),
	}
	if models.IsWebURL(strings.TrimSpace(content.ImageURL)) {
		data.ImageURL = strings.TrimSpace(content.ImageURL)
	}

	body := content.Body
	format := content.BodyFormat
	if strings.TrimSpace(body) == "" {
		body, format = text.Body, models.BodyFormatText
	}
	if format == models.BodyFormatMarkdown {
		rendered, err := markdown.ToHTML(body)
		if err != nil {
			return nil, fmt.Errorf("render markdown body: %w", err)
		}
		data.BodyHTML = template.HTML(rendered)
	} else {
		data.Paragraphs = paragraphs(body)
	}

	if m := opts.Model; m != nil && m.Type == models.ModelTypeTeachableMachine {
		w := &modelWidget{URL: m.ModelURL, Prompt: text.Prompt}
		if m.Configuration.Threshold != nil {
			w.Threshold = *m.Configuration.Threshold
		}
		data.Model = w
	}

	var buf bytes.Buffer
	if err := layout.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute page layout: %w", err)
	}
	return buf.Bytes(), nil
}

// paragraphs splits plain text on blank lines; single newlines become
// line breaks within a paragraph.
func paragraphs(body string) [][]string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	var out [][]string
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i := range lines {
			lines[i] = strings.TrimSpace(lines[i])
		}
		out = append(out, lines)
	}
	return out
}

func placements(rev *models.RevenueConfig) adPlacements {
	if rev == nil || !rev.AdsenseEnabled || rev.AdsensePublisherID == "" {
		return adPlacements{}
	}
	client := "ca-" + rev.AdsensePublisherID
	return adPlacements{
		Client:    client,
		Header:    slots(client, rev.UnitsAt(models.AdPositionHeader)),
		Sidebar:   slots(client, rev.UnitsAt(models.AdPositionSidebar)),
		InContent: slots(client, rev.UnitsAt(models.AdPositionInContent)),
		Footer:    slots(client, rev.UnitsAt(models.AdPositionFooter)),
	}
}

func slots(client string, units []models.AdUnit) []adSlot {
	out := make([]adSlot, 0, len(units))
	for _, u := range units {
		s := adSlot{Client: client, Slot: u.Code}
		w, h, ok := parseSize(u.Size)
		if !ok {
			if u.Size != "responsive" {
				slog.Warn("unparseable ad size, rendering responsive", "size", u.Size, "slot", u.Code)
			}
			s.Responsive = true
		} else {
			s.Width, s.Height = w, h
		}
		out = append(out, s)
	}
	return out
}

func parseSize(size string) (int, int, bool) {
	ws, hs, found := strings.Cut(size, "x")
	if !found {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(ws)
	h, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func firstNonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
