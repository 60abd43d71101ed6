package domain

import (
	"encoding/json"
	"strings"
)

// MediaType constants
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// SpaceContent is the typed content payload of an ad space. Historically
// this was a free-form JSON blob; only the fields below are recognized,
// anything else is ignored on load and never written back.
type SpaceContent struct {
	URL         string `json:"url,omitempty"`
	Headline    string `json:"headline,omitempty"`
	Subheadline string `json:"subheadline,omitempty"`
}

// DesignContent is the typed content payload of an ad design. RedirectURL,
// when set, is the most specific redirect and wins over the ad space's URL.
type DesignContent struct {
	RedirectURL string `json:"redirectUrl,omitempty"`
	MediaType   string `json:"mediaType,omitempty"` // image, video
}

// Theme holds display colors for the public view page
type Theme struct {
	Primary    string `json:"primary,omitempty"`
	Background string `json:"background,omitempty"`
	Text       string `json:"text,omitempty"`
}

// ParseSpaceContent decodes a stored content blob. Empty or malformed
// input yields a zero value rather than an error: a broken blob must
// degrade the page, not break resolution.
func ParseSpaceContent(raw string) SpaceContent {
	var c SpaceContent
	if raw == "" {
		return c
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return SpaceContent{}
	}
	return c
}

// ParseDesignContent decodes a stored design content blob, tolerating
// malformed input the same way as ParseSpaceContent.
func ParseDesignContent(raw string) DesignContent {
	var c DesignContent
	if raw == "" {
		return c
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return DesignContent{}
	}
	return c
}

// ParseTheme decodes a stored theme blob
func ParseTheme(raw string) Theme {
	var t Theme
	if raw == "" {
		return t
	}
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Theme{}
	}
	return t
}

// EncodeJSON serializes a content or theme value for storage
func EncodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// IsBlobURL reports whether a URL uses the blob: scheme. Blob URLs are
// client-local object URLs from a stale browser session and are
// unreachable from anywhere else, so they are never valid media URLs.
func IsBlobURL(u string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(u)), "blob:")
}

// CleanMediaURL returns the URL unchanged, or empty if it is absent or
// blob-scheme
func CleanMediaURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || IsBlobURL(u) {
		return ""
	}
	return u
}
