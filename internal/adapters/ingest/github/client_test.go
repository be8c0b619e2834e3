package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	perr "quickbuild/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunsPath(t *testing.T) {
	assert.Equal(t, "/repos/alsuren/cargo-quickinstall/actions/runs?page=3&per_page=100",
		RunsPath("alsuren/cargo-quickinstall", 3, 100))
	assert.Equal(t, "/repos/a/b/actions/runs?page=1", RunsPath("a/b", 1, 0))
}

func TestWorkflowRunsPage_HeadersAndBody(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/repos/alsuren/cargo-quickinstall/actions/runs", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		assert.Equal(t, AcceptV3, r.Header.Get("Accept"))
		assert.Equal(t, "quickbuild-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "token sekret", r.Header.Get("Authorization"))
		w.Header().Set("X-RateLimit-Remaining", "59")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		_, _ = w.Write([]byte(`{"total_count":1,"workflow_runs":[{"id":1}]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/", UserAgent: "quickbuild-test", Token: " sekret "})
	b, err := c.WorkflowRunsPage(context.Background(), "alsuren/cargo-quickinstall", 2, 50)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_count":1,"workflow_runs":[{"id":1}]}`, string(b))
	assert.EqualValues(t, 1, hits.Load())
}

func TestWorkflowRunsPage_AnonymousHasNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).WorkflowRunsPage(context.Background(), "a/b", 1, 0)
	require.NoError(t, err)
}

func TestWorkflowRunsPage_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).WorkflowRunsPage(context.Background(), "a/b", 1, 100)
	require.Error(t, err)

	var gse *GHStatusError
	require.True(t, errors.As(err, &gse))
	assert.Equal(t, http.StatusForbidden, gse.HTTPStatus())
	assert.Contains(t, gse.Body, "rate limit")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url, Timeout: time.Second})
	_, err := c.WorkflowRunsPage(context.Background(), "a/b", 1, 100)
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
	var gse *GHStatusError
	assert.False(t, errors.As(err, &gse), "no response, no status")
}

func TestCountRuns(t *testing.T) {
	cases := []struct {
		name string
		body string
		n    int
		ok   bool
	}{
		{"two", `{"workflow_runs":[{},{}]}`, 2, true},
		{"empty", `{"total_count":0,"workflow_runs":[]}`, 0, true},
		{"missing", `{"message":"Not Found"}`, 0, false},
		{"null", `{"workflow_runs":null}`, 0, false},
		{"garbage", `<html>`, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n, ok := CountRuns([]byte(c.body))
			assert.Equal(t, c.n, n)
			assert.Equal(t, c.ok, ok)
		})
	}
}

func TestParseRateHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "12")
	h.Set("X-RateLimit-Reset", "1700000000")
	rem, reset := parseRateHeaders(h)
	assert.Equal(t, 12, rem)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), reset)

	rem, reset = parseRateHeaders(http.Header{})
	assert.Zero(t, rem)
	assert.True(t, reset.IsZero())
}
