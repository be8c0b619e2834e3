package github

import (
	"net/http"
	"strconv"
	"time"
)

// GHStatusError wraps non-2xx HTTP responses from GitHub
type GHStatusError struct {
	Status int
	Body   string
	Err    error
}

// Error interface
func (e *GHStatusError) Error() string { return e.Err.Error() }

// Unwrap interface
func (e *GHStatusError) Unwrap() error { return e.Err }

// HTTPStatus interface
func (e *GHStatusError) HTTPStatus() int { return e.Status }

// parseRateHeaders reads the quota headers; they are only logged
func parseRateHeaders(h http.Header) (remaining int, reset time.Time) {
	remaining, _ = strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if sec, _ := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); sec > 0 {
		reset = time.Unix(sec, 0).UTC()
	}
	return remaining, reset
}
