// Package media handles creative files: the upload store that backs
// public media URLs and the readiness prober used before rendering.
package media

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// HTTPProber checks that an image URL answers before the view page
// commits to it. Constrained (mobile) clients get a stricter check with
// a small bounded number of cache-busting retries.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
	log     *zap.Logger

	// retryDelay between constrained-mode attempts.
	retryDelay time.Duration
}

// NewHTTPProber creates a prober with the given per-attempt timeout
func NewHTTPProber(timeout time.Duration, log *zap.Logger) *HTTPProber {
	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		timeout:    timeout,
		log:        log,
		retryDelay: 300 * time.Millisecond,
	}
}

// ProbeImage reports whether the URL is fetchable. A HEAD request is
// tried first; servers that reject HEAD get a one-byte ranged GET.
func (p *HTTPProber) ProbeImage(ctx context.Context, rawURL string, constrained bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("unparseable media url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported media url scheme %q", u.Scheme)
	}

	attempts := 1
	if constrained {
		attempts = 3
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		target := rawURL
		if i > 0 {
			// Cache-busting suffix so a poisoned intermediary cache
			// can't keep failing the retry.
			target = withCacheBuster(u, i)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.retryDelay):
			}
		}

		if lastErr = p.probeOnce(ctx, target); lastErr == nil {
			return nil
		}
		p.log.Debug("image probe attempt failed",
			zap.String("url", target), zap.Int("attempt", i+1), zap.Error(lastErr))
	}

	return lastErr
}

func (p *HTTPProber) probeOnce(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode < 400 {
			return nil
		}
		if resp.StatusCode != http.StatusMethodNotAllowed {
			return fmt.Errorf("probe got status %d", resp.StatusCode)
		}
	}

	// HEAD failed or is not allowed; fetch a single byte instead.
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err = p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("probe got status %d", resp.StatusCode)
	}
	return nil
}

func withCacheBuster(u *url.URL, attempt int) string {
	bust := *u
	q := bust.Query()
	q.Set("cb", fmt.Sprintf("%d%d", time.Now().UnixMilli(), attempt))
	bust.RawQuery = q.Encode()
	return bust.String()
}
