// Package github provides a small GitHub REST v3 client for listing workflow runs
package github

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"
)

const (
	baseURLDefault = "https://api.github.com"
	defaultTimeout = 30 * time.Second
	defaultUA      = "quickbuild-runs"

	// AcceptV3 is the media type the runs listing is requested with
	AcceptV3 = "application/vnd.github.v3+json"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Token is optional; empty means anonymous requests with the low unauthenticated quota
	Token string

	// HTTPClient overrides the client built from Timeout (tests)
	HTTPClient *http.Client
}

// Client is a minimal GitHub REST client. It makes exactly one attempt per call
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	o.Token = strings.TrimSpace(o.Token)
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http: hc,
		opts: o,
		log:  *logger.Named("github"),
		now:  time.Now,
	}
}

// Do issues a GET-style request with auth and media type headers.
// A 2xx response is returned open; anything else is closed and reported as *GHStatusError
func (c *Client) Do(ctx context.Context, method, path string) (*http.Response, error) {
	url := c.opts.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "github new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", AcceptV3)
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "token "+c.opts.Token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github %s %s failed", method, path)
	}

	rem, reset := parseRateHeaders(resp.Header)
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Int("rate_remaining", rem).
		Time("rate_reset", reset).
		Msg("github http response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	// read a small tail for diagnostics then return
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	_ = resp.Body.Close()
	return nil, &GHStatusError{
		Status: resp.StatusCode,
		Body:   string(body),
		Err:    perr.Unavailablef("github %s %s: unexpected status %d", method, path, resp.StatusCode),
	}
}
