package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// ErrBlocked marks a fetch that hit an anti-bot challenge the client could
// not get past.
var ErrBlocked = errors.New("blocked by anti-bot challenge")

// Policy controls retry, backoff, and pacing for the client.
type Policy struct {
	// Retries is the total number of primary attempts per call.
	Retries int
	// Backoff is slept between consecutive attempts.
	Backoff time.Duration
	// MinDelay is the global minimum spacing between requests, shared by
	// every worker using this client.
	MinDelay time.Duration
}

// Client is the fetch pipeline handed to the crawler: retries with backoff,
// global rate limiting, and a one-shot browser fallback when the primary path
// is served a challenge. A call always ends in either a page or an error; it
// never panics past this boundary.
type Client struct {
	direct   Fetcher
	renderer Renderer
	policy   Policy
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewClient builds a client around a single-attempt fetcher and an optional
// renderer fallback.
func NewClient(direct Fetcher, renderer Renderer, policy Policy, logger *slog.Logger) *Client {
	if policy.Retries <= 0 {
		policy.Retries = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if policy.MinDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(policy.MinDelay), 1)
	}
	return &Client{
		direct:   direct,
		renderer: renderer,
		policy:   policy,
		limiter:  limiter,
		logger:   logger,
	}
}

// Fetch retrieves rawURL, retrying transient failures and falling back to the
// renderer at most once when a challenge is detected.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*types.Page, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.Retries; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.policy.Backoff); err != nil {
				return nil, err
			}
		}
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		page, err := c.direct.Fetch(ctx, rawURL)
		if err != nil {
			lastErr = err
			c.logger.Debug("fetch attempt failed", "url", rawURL, "attempt", attempt, "error", err)
			continue
		}
		page.Attempts = attempt

		if page.StatusCode >= 200 && page.StatusCode < 300 {
			return page, nil
		}

		if IsChallenge(page) {
			return c.fallback(ctx, rawURL, attempt)
		}

		lastErr = fmt.Errorf("unexpected status %d", page.StatusCode)
		c.logger.Debug("fetch attempt failed", "url", rawURL, "attempt", attempt, "status", page.StatusCode)
	}

	return nil, fmt.Errorf("fetch %s: giving up after %d attempts: %w", rawURL, c.policy.Retries, lastErr)
}

// fallback runs the renderer once. Per-call it is never retried: if the heavy
// path cannot pass the challenge either, the whole call fails.
func (c *Client) fallback(ctx context.Context, rawURL string, attempt int) (*types.Page, error) {
	if c.renderer == nil {
		return nil, fmt.Errorf("fetch %s: %w (no fallback renderer configured)", rawURL, ErrBlocked)
	}

	c.logger.Info("challenge detected, switching to browser fallback", "url", rawURL)
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	page, err := c.renderer.Render(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: fallback failed: %v", rawURL, ErrBlocked, err)
	}
	page.Attempts = attempt + 1
	return page, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
