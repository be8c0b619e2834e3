package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	perr "quickbuild/internal/platform/errors"
)

// maxPageBytes caps one runs page; a full 100-run page is well under 2MB
const maxPageBytes = 64 << 20

// RunsPath returns the list-workflow-runs path for ownerRepo ("owner/name") and a 1-based page
func RunsPath(ownerRepo string, page, perPage int) string {
	owner, repo, _ := strings.Cut(ownerRepo, "/")
	q := url.Values{}
	if perPage > 0 {
		q.Set("per_page", fmt.Sprint(perPage))
	}
	q.Set("page", fmt.Sprint(page))
	return fmt.Sprintf("/repos/%s/%s/actions/runs?%s", url.PathEscape(owner), url.PathEscape(repo), q.Encode())
}

// WorkflowRunsPage fetches one page of the runs listing and returns the raw body bytes
func (c *Client) WorkflowRunsPage(ctx context.Context, ownerRepo string, page, perPage int) ([]byte, error) {
	path := RunsPath(ownerRepo, page, perPage)
	resp, err := c.Do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("github close body failed")
		}
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github read body %s", path)
	}
	return b, nil
}
