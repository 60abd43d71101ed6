// Package resolver implements the ad/QR resolution engine behind the
// public view and redirect endpoints: it turns a scanned QR code id
// and/or an ad-space id into the creative to render and the URL to
// redirect to, tolerating missing rows and stale links, and records
// scan/view analytics off the request path.
package resolver

import (
	"context"
	"time"

	"adspotly/internal/domain"
	"adspotly/internal/repository"

	"go.uber.org/zap"
)

// Prober verifies that an image URL is fetchable before the page
// commits to rendering it. Video URLs are never pre-probed.
type Prober interface {
	ProbeImage(ctx context.Context, url string, constrained bool) error
}

// Params is one resolution request
type Params struct {
	QrID string
	AdID string

	// Constrained marks a mobile/flaky network classification: probes
	// get stricter and the caller may retry the whole resolution.
	Constrained bool

	// Requester metadata recorded with the scan event.
	IP        string
	UserAgent string
	Location  string
}

// Engine resolves view requests against the datastore
type Engine struct {
	repos *repository.Repositories
	probe Prober
	log   *zap.Logger

	// background runs analytics and repair writes detached from the
	// request so display latency never includes them. Swapped for a
	// synchronous runner in tests.
	background func(task func(ctx context.Context))
}

// New creates a resolution engine. probe may be nil, in which case
// image URLs are trusted without a readiness check.
func New(repos *repository.Repositories, probe Prober, log *zap.Logger) *Engine {
	e := &Engine{repos: repos, probe: probe, log: log}
	e.background = func(task func(ctx context.Context)) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			task(ctx)
		}()
	}
	return e
}

// Resolve runs the full resolution: validation, QR lookup, ad space
// lookup, the design fallback chain, media probing, and fire-and-forget
// analytics. Only identifier validation can fail; every datastore miss
// degrades to the next fallback, and a result with no creative and no
// redirect is the neutral "no content" state, not an error.
func (e *Engine) Resolve(ctx context.Context, p Params) (*domain.ResolvedAd, error) {
	qrID, adID, err := validateParams(p.QrID, p.AdID)
	if err != nil {
		return nil, err
	}

	res := &domain.ResolvedAd{}

	// The working ad-space id: pinned by the caller's ad parameter,
	// otherwise inherited from the QR code it scanned.
	workingAd := adID
	var redirect string

	if qrID != "" {
		qr, err := e.repos.QrCodes.GetByID(ctx, qrID)
		switch {
		case err != nil:
			e.log.Warn("qr lookup failed, continuing without it",
				zap.String("qr_id", qrID), zap.Error(err))
		case qr == nil:
			e.log.Info("qr code not found", zap.String("qr_id", qrID))
		default:
			res.QrCodeID = qr.ID
			redirect = qr.URL
			if workingAd == "" && qr.AdSpaceID != nil && *qr.AdSpaceID != "" {
				workingAd = *qr.AdSpaceID
			}
		}
	}

	var space *domain.AdSpace
	if workingAd != "" {
		space, err = e.repos.AdSpaces.GetByID(ctx, workingAd)
		if err != nil {
			e.log.Warn("ad space lookup failed, continuing without it",
				zap.String("ad_space_id", workingAd), zap.Error(err))
			space = nil
		}
		if space != nil {
			res.AdSpaceID = space.ID
			res.Title = space.Title
			res.Subheading = space.Description
			res.Theme = space.Theme
			if space.Content.Headline != "" {
				res.Title = space.Content.Headline
			}
			if space.Content.Subheadline != "" {
				res.Subheading = space.Content.Subheadline
			}
			// The ad-space redirect wins over the QR code's raw URL:
			// the operator may have repointed the space after the QR
			// was printed.
			if space.Content.URL != "" {
				redirect = space.Content.URL
			}
		}
	}

	if workingAd != "" {
		design, repaired := e.findDesign(ctx, workingAd, space)
		if design != nil {
			res.DesignID = design.ID
			res.Creative = pickCreative(design)
			// The design's own redirect is the most specific and wins.
			if design.Content.RedirectURL != "" {
				redirect = design.Content.RedirectURL
			}
			if repaired {
				e.scheduleRepair(design.ID, workingAd)
			}
		}
	}

	res.RedirectURL = redirect

	e.checkMedia(ctx, res, p.Constrained)
	e.recordAnalytics(res, workingAd, p)

	return res, nil
}

// findDesign runs the fallback chain, stopping at the first hit. The
// second return value reports whether the hit came from a speculative
// branch and the design's ad-space link should be repaired.
func (e *Engine) findDesign(ctx context.Context, workingAd string, space *domain.AdSpace) (*domain.AdDesign, bool) {
	// 1. The straightforward link: latest design pointing at the space.
	design, err := e.repos.AdDesigns.GetLatestByAdSpaceID(ctx, workingAd)
	if err != nil {
		e.log.Warn("design lookup by ad space failed", zap.Error(err))
	}
	if design != nil {
		return design, false
	}

	// 2. Historical rows conflated design id with space id.
	design, err = e.repos.AdDesigns.GetByID(ctx, workingAd)
	if err != nil {
		e.log.Warn("design lookup by id failed", zap.Error(err))
	}
	if design != nil {
		return design, true
	}

	// 3. Last guess: the space owner's most recent design. Needs the
	// space row for the owner id.
	if space != nil {
		design, err = e.repos.AdDesigns.GetLatestByUserID(ctx, space.UserID)
		if err != nil {
			e.log.Warn("design lookup by owner failed", zap.Error(err))
		}
		if design != nil {
			return design, true
		}
	}

	return nil, false
}

// pickCreative chooses the visual asset from a design, discarding
// blob-scheme URLs first. An explicit mediaType hint wins; otherwise an
// image is preferred and video is the fallback.
func pickCreative(design *domain.AdDesign) domain.Creative {
	img := domain.CleanMediaURL(design.ImageURL)
	vid := domain.CleanMediaURL(design.VideoURL)

	switch design.Content.MediaType {
	case domain.MediaTypeVideo:
		if vid != "" {
			return domain.Creative{Kind: domain.CreativeVideo, URL: vid}
		}
	case domain.MediaTypeImage:
		if img != "" {
			return domain.Creative{Kind: domain.CreativeImage, URL: img}
		}
	}

	if img != "" {
		return domain.Creative{Kind: domain.CreativeImage, URL: img}
	}
	if vid != "" {
		return domain.Creative{Kind: domain.CreativeVideo, URL: vid}
	}
	return domain.Creative{Kind: domain.CreativeNone}
}

// checkMedia probes an image creative for reachability. A failed probe
// downgrades to the placeholder state; it never fails the resolution.
func (e *Engine) checkMedia(ctx context.Context, res *domain.ResolvedAd, constrained bool) {
	if e.probe == nil || res.Creative.Kind != domain.CreativeImage {
		return
	}
	if err := e.probe.ProbeImage(ctx, res.Creative.URL, constrained); err != nil {
		e.log.Info("image probe failed, using placeholder",
			zap.String("url", res.Creative.URL), zap.Error(err))
		res.MediaUnreachable = true
	}
}

// scheduleRepair writes the corrected ad-space link after the result has
// already been handed back. Failure is logged and dropped.
func (e *Engine) scheduleRepair(designID, adSpaceID string) {
	log := e.log
	repos := e.repos
	e.background(func(ctx context.Context) {
		if err := repos.AdDesigns.AttachAdSpace(ctx, designID, adSpaceID); err != nil {
			log.Warn("design link repair failed",
				zap.String("design_id", designID),
				zap.String("ad_space_id", adSpaceID),
				zap.Error(err))
			return
		}
		log.Info("repaired design ad-space link",
			zap.String("design_id", designID),
			zap.String("ad_space_id", adSpaceID))
	})
}

// recordAnalytics fires the scan/view increments without blocking the
// render path. Counters are at-least-once; failures are swallowed.
func (e *Engine) recordAnalytics(res *domain.ResolvedAd, workingAd string, p Params) {
	log := e.log
	repos := e.repos

	if res.QrCodeID != "" {
		event := &domain.ScanEvent{
			QrCodeID:  res.QrCodeID,
			IP:        p.IP,
			UserAgent: p.UserAgent,
			Location:  p.Location,
		}
		if workingAd != "" {
			ad := workingAd
			event.AdSpaceID = &ad
		}
		e.background(func(ctx context.Context) {
			if err := repos.QrCodes.IncrementScans(ctx, event); err != nil {
				log.Warn("scan increment failed", zap.String("qr_id", event.QrCodeID), zap.Error(err))
			}
		})
	}

	if res.AdSpaceID != "" {
		id := res.AdSpaceID
		e.background(func(ctx context.Context) {
			if err := repos.AdSpaces.IncrementViews(ctx, id); err != nil {
				log.Warn("view increment failed", zap.String("ad_space_id", id), zap.Error(err))
			}
		})
	}
}
