// Package fetch pages through the runs listing into the page cache
package fetch

import (
	"bytes"
	"context"
	"errors"

	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"
	"quickbuild/internal/services/runs/domain"
)

// Config holds pagination limits
type Config struct {
	MaxPages int // <=0 -> domain.DefaultMaxPages

	// StopOnEmptyRuns ends pagination at a page whose workflow_runs array is empty
	StopOnEmptyRuns bool
}

// Fetcher walks pages 1..MaxPages, skipping cached pages and stopping at the first failed or empty one
type Fetcher struct {
	src   domain.PageSource
	cache domain.PageCache
	cfg   Config
}

// New constructs a Fetcher
func New(src domain.PageSource, cache domain.PageCache, cfg Config) *Fetcher {
	if src == nil || cache == nil {
		panic("fetch.Fetcher requires a page source and a page cache")
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = domain.DefaultMaxPages
	}
	return &Fetcher{src: src, cache: cache, cfg: cfg}
}

// Run fetches missing pages. A failed or empty page is not an error: it ends pagination.
// Only cache failures and context cancellation are returned.
func (f *Fetcher) Run(ctx context.Context) (domain.FetchStats, error) {
	log := logger.CNamed(ctx, "fetch")
	var st domain.FetchStats

	for page := 1; page <= f.cfg.MaxPages; page++ {
		cached, err := f.cache.Has(page)
		if err != nil {
			return st, err
		}
		if cached {
			st.Skipped++
			log.Debug().Int("page", page).Msg("page cached; skipping")
			continue
		}

		p, err := f.src.FetchPage(ctx, page)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return st, perr.Wrap(cerr, perr.ErrorCodeUnavailable, "fetch interrupted")
			}
			var se domain.StatusError
			if errors.As(err, &se) {
				st.StopStatus = se.HTTPStatus()
			}
			log.Warn().Err(err).Int("page", page).Int("status", st.StopStatus).Msg("page request failed; stopping pagination")
			return f.stop(st, page, domain.StopFailed), nil
		}
		if len(bytes.TrimSpace(p.Body)) == 0 {
			log.Info().Int("page", page).Msg("empty page body; stopping pagination")
			return f.stop(st, page, domain.StopEmptyBody), nil
		}
		if f.cfg.StopOnEmptyRuns && p.Runs == 0 {
			log.Info().Int("page", page).Msg("page has no runs; stopping pagination")
			return f.stop(st, page, domain.StopEmptyRuns), nil
		}

		if err := f.cache.Put(page, p.Body); err != nil {
			return st, err
		}
		st.Fetched++
		if p.Runs < 0 {
			st.Unrecognized = append(st.Unrecognized, page)
			log.Warn().
				Int("page", page).
				Str("path", f.cache.PagePath(page)).
				Msg("page cached without a workflow_runs array; remove the file if aggregation fails")
		}
		log.Debug().Int("page", page).Int("runs", p.Runs).Int("bytes", len(p.Body)).Msg("page fetched")
	}

	st.StopReason = domain.StopLimit
	return st, nil
}

func (f *Fetcher) stop(st domain.FetchStats, page int, why domain.StopReason) domain.FetchStats {
	st.StoppedAt = page
	st.StopReason = why
	return st
}
