package domain

// CreativeKind tags the visual creative chosen for a view
type CreativeKind int

const (
	CreativeNone CreativeKind = iota
	CreativeImage
	CreativeVideo
)

// Creative is the visual asset to render, if any
type Creative struct {
	Kind CreativeKind `json:"kind"`
	URL  string       `json:"url,omitempty"`
}

// IsImage reports whether the creative is an image
func (c Creative) IsImage() bool { return c.Kind == CreativeImage }

// IsVideo reports whether the creative is a video
func (c Creative) IsVideo() bool { return c.Kind == CreativeVideo }

// ResolvedAd is the transient outcome of resolving a scanned QR code
// and/or ad-space link. It is recomputed per request and never persisted.
type ResolvedAd struct {
	Creative    Creative `json:"creative"`
	RedirectURL string   `json:"redirectUrl,omitempty"`
	Title       string   `json:"title,omitempty"`
	Subheading  string   `json:"subheading,omitempty"`
	Theme       Theme    `json:"theme"`

	// MediaUnreachable is set when an image creative failed its
	// readiness probe; the page renders a placeholder with a manual
	// retry affordance instead of a broken image.
	MediaUnreachable bool `json:"mediaUnreachable,omitempty"`

	// Identifiers in effect after resolution, for analytics and debugging.
	QrCodeID  string `json:"qrCodeId,omitempty"`
	AdSpaceID string `json:"adSpaceId,omitempty"`
	DesignID  string `json:"designId,omitempty"`
}

// HasContent reports whether the result carries anything to show or
// navigate to. False means the neutral "no content" state, not an error.
func (r *ResolvedAd) HasContent() bool {
	return r.Creative.Kind != CreativeNone || r.RedirectURL != ""
}
