// Package ingest holds adapter shims for the runs ingest ports.
package ingest

import (
	"context"

	"quickbuild/internal/adapters/ingest/github"
	"quickbuild/internal/services/runs/domain"
)

var _ domain.StatusError = (*github.GHStatusError)(nil)

// source implements domain.PageSource against one repository's runs listing
type source struct {
	gh      *github.Client
	repo    string
	perPage int
}

// NewSource binds a GitHub client to ownerRepo and a page size.
// perPage <= 0 leaves the page size to the API default
func NewSource(gh *github.Client, ownerRepo string, perPage int) domain.PageSource {
	return &source{gh: gh, repo: ownerRepo, perPage: perPage}
}

func (s *source) FetchPage(ctx context.Context, page int) (domain.Page, error) {
	body, err := s.gh.WorkflowRunsPage(ctx, s.repo, page, s.perPage)
	if err != nil {
		return domain.Page{Number: page}, err
	}
	n, ok := github.CountRuns(body)
	if !ok {
		n = -1
	}
	return domain.Page{Number: page, Body: body, Runs: n}, nil
}
