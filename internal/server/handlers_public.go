package server

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"adspotly/internal/domain"
	"adspotly/internal/logger"
	"adspotly/internal/resolver"

	"go.uber.org/zap"
)

// View page display states
const (
	viewStateCreative = "creative"
	viewStateRedirect = "redirect"
	viewStateEmpty    = "empty"
	viewStateError    = "error"
)

// viewPageData is the template payload for the public view page
type viewPageData struct {
	Title        string
	Business     string
	State        string
	Result       *domain.ResolvedAd
	ErrorMessage string
	Countdown    int
	Debug        bool
	DebugLines   []string
}

// handleView resolves a scanned QR code or ad-space link and renders
// the public view page: a full-bleed creative, a redirect card with a
// countdown, a neutral empty state, or an error card. Only malformed
// input reaches the error card; every lookup miss degrades instead.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := resolver.Params{
		QrID:        q.Get("qr"),
		AdID:        q.Get("ad"),
		Constrained: classifyConstrained(r),
		IP:          clientIP(r),
		UserAgent:   r.UserAgent(),
		Location:    coarseLocation(r),
	}

	data := &viewPageData{
		Title:     "View",
		Business:  s.config.Business.Name,
		Countdown: s.config.Resolver.CountdownSeconds,
		Debug:     q.Get("debug") == "true",
	}

	res, err := s.engine.ResolveWithRetry(r.Context(), params, s.retry)
	switch {
	case errors.Is(err, resolver.ErrMissingIdentifier):
		data.State = viewStateError
		data.ErrorMessage = "This link is missing its code. Check the address and try again."
		s.renderView(w, http.StatusBadRequest, data)
		return
	case errors.Is(err, resolver.ErrInvalidIdentifier):
		data.State = viewStateError
		data.ErrorMessage = "This link looks malformed. Check the address and try again."
		s.renderView(w, http.StatusBadRequest, data)
		return
	case err != nil:
		logger.Log.Error("resolution failed unexpectedly", zap.Error(err))
		data.State = viewStateError
		data.ErrorMessage = "Something went wrong loading this page."
		s.renderView(w, http.StatusInternalServerError, data)
		return
	}

	data.Result = res
	if res.Title != "" {
		data.Title = res.Title
	}

	switch {
	case res.Creative.Kind != domain.CreativeNone:
		data.State = viewStateCreative
	case res.RedirectURL != "":
		data.State = viewStateRedirect
	default:
		// Nothing to show and nowhere to go: a neutral state, not an error.
		data.State = viewStateEmpty
	}

	s.renderView(w, http.StatusOK, data)
}

// handleGo is the direct-redirect counterpart of the view page: the
// same resolution contract answered with a 302 instead of markup.
func (s *Server) handleGo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := resolver.Params{
		QrID:        q.Get("qr"),
		AdID:        q.Get("ad"),
		Constrained: classifyConstrained(r),
		IP:          clientIP(r),
		UserAgent:   r.UserAgent(),
		Location:    coarseLocation(r),
	}

	res, err := s.engine.Resolve(r.Context(), params)
	if err != nil {
		http.Error(w, "invalid or missing identifier", http.StatusBadRequest)
		return
	}

	target := res.RedirectURL
	if target == "" && res.Creative.Kind != domain.CreativeNone {
		target = res.Creative.URL
	}
	if target == "" {
		// Nothing to redirect to; hand over to the view page so the
		// visitor still gets a rendered answer.
		viewURL := "/view"
		if enc := q.Encode(); enc != "" {
			viewURL += "?" + enc
		}
		http.Redirect(w, r, viewURL, http.StatusFound)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// renderView renders the view page template
func (s *Server) renderView(w http.ResponseWriter, status int, data *viewPageData) {
	if data.Debug {
		data.DebugLines = logger.Ring.Tail(50)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := s.templates.Render(w, "pages/public/view.html", data); err != nil {
		logger.Log.Error("failed to render view page", zap.Error(err))
	}
}

// classifyConstrained guesses whether the client sits on a constrained
// mobile network. The signal drives stricter media probing and the
// bounded whole-resolution retry, never a separate code path.
func classifyConstrained(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("Save-Data"), "on") {
		return true
	}
	switch strings.ToLower(r.Header.Get("ECT")) {
	case "slow-2g", "2g", "3g":
		return true
	}
	return strings.Contains(r.UserAgent(), "Mobi")
}

// clientIP strips the port from RemoteAddr. Behind a proxy the RealIP
// middleware has already rewritten RemoteAddr to the real client.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// coarseLocation pulls a country hint from CDN headers when present.
// The server records it, it never geolocates on its own.
func coarseLocation(r *http.Request) string {
	if c := r.Header.Get("CF-IPCountry"); c != "" && c != "XX" {
		return c
	}
	return r.Header.Get("X-Geo-Country")
}

// absoluteViewURL builds the externally reachable view link for a QR
// code, the payload encoded into its scannable image
func (s *Server) absoluteViewURL(qrID string) string {
	base := strings.TrimSuffix(s.config.Server.PublicBaseURL, "/")
	return base + "/view?qr=" + url.QueryEscape(qrID)
}
