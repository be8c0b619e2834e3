// Package service runs the fetch, aggregate, transform and write stages in order
package service

import (
	"context"
	"time"

	"quickbuild/internal/adapters/ingest/pagecache"
	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"
	"quickbuild/internal/services/runs/aggregate"
	"quickbuild/internal/services/runs/domain"
	"quickbuild/internal/services/runs/fetch"
	"quickbuild/internal/services/runs/transform"
)

// Config holds the per-invocation knobs of the pipeline
type Config struct {
	// OutDir receives the output file; it is the caller's working directory by default
	OutDir string

	Fetch fetch.Config
}

// Service implements domain.RunnerPort
type Service struct {
	Source domain.PageSource
	Cache  *pagecache.Cache
	Writer domain.TableWriter
	Sinks  []domain.Sink
	Cfg    Config
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the service; sinks are optional
func New(src domain.PageSource, cache *pagecache.Cache, w domain.TableWriter, cfg Config, sinks ...domain.Sink) *Service {
	if src == nil || cache == nil || w == nil {
		panic("service: nil dependency")
	}
	return &Service{Source: src, Cache: cache, Writer: w, Sinks: sinks, Cfg: cfg}
}

// Run executes one full pipeline pass. The output file is in place before any sink runs
func (s *Service) Run(ctx context.Context) (domain.Report, error) {
	log := logger.C(ctx)
	started := time.Now()
	var rep domain.Report

	log.Info().
		Str("scratch_dir", s.Cache.Dir()).
		Str("out_dir", s.Cfg.OutDir).
		Int("max_pages", s.Cfg.Fetch.MaxPages).
		Msg("pipeline starting")

	st, err := fetch.New(s.Source, s.Cache, s.Cfg.Fetch).Run(ctx)
	rep.Fetch = st
	if err != nil {
		return rep, stage(err, "fetch")
	}
	log.Info().
		Int("fetched", st.Fetched).
		Int("skipped", st.Skipped).
		Int("stopped_at", st.StoppedAt).
		Str("stop_reason", string(st.StopReason)).
		Int("stop_status", st.StopStatus).
		Ints("unrecognized_pages", st.Unrecognized).
		Msg("fetch done")

	n, err := aggregate.New(s.Cache).Run(ctx)
	rep.Aggregated = n
	if err != nil {
		return rep, stage(err, "aggregate")
	}

	rows, err := transform.Run(ctx, s.Cache.ArrayPath())
	if err != nil {
		return rep, stage(err, "transform")
	}
	rep.Kept = len(rows)

	out, err := s.Writer.WriteTable(ctx, rows, s.Cfg.OutDir)
	if err != nil {
		return rep, stage(err, "write")
	}
	rep.OutputPath = out

	for _, sink := range s.Sinks {
		if err := sink.Write(ctx, rows); err != nil {
			return rep, stage(err, "sink "+sink.Name())
		}
		rep.Sinks = append(rep.Sinks, sink.Name())
	}

	log.Info().
		Int("aggregated", rep.Aggregated).
		Int("kept", rep.Kept).
		Str("output", rep.OutputPath).
		Strs("sinks", rep.Sinks).
		Dur("elapsed", time.Since(started)).
		Msg("pipeline done")
	return rep, nil
}

// stage prefixes the error's op with the pipeline stage that produced it
func stage(err error, name string) error {
	if e, ok := perr.As(err); ok && e.Op() != "" {
		return perr.WithOp(err, name+": "+e.Op())
	}
	return perr.WithOp(err, name)
}
