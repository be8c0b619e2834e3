package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quickbuild/internal/adapters/ingest/github"
	"quickbuild/internal/services/runs/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPage_CountsRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/o/r/actions/runs", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("per_page"))
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(`{"total_count":2,"workflow_runs":[{"id":1},{"id":2}]}`))
		case "2":
			_, _ = w.Write([]byte(`{"total_count":2,"workflow_runs":[]}`))
		default:
			_, _ = w.Write([]byte(`{"message":"odd"}`))
		}
	}))
	defer srv.Close()

	src := NewSource(github.NewClient(github.Options{BaseURL: srv.URL}), "o/r", 25)

	p, err := src.FetchPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 2, p.Runs)
	assert.NotEmpty(t, p.Body)

	p, err = src.FetchPage(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Runs)

	p, err = src.FetchPage(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, -1, p.Runs)
}

func TestFetchPage_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p, err := NewSource(github.NewClient(github.Options{BaseURL: srv.URL}), "o/r", 0).FetchPage(context.Background(), 4)
	require.Error(t, err)
	assert.Equal(t, 4, p.Number)

	var se domain.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.HTTPStatus())
}
