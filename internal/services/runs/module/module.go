// Package module provides the runs module implementation
package module

import (
	"context"
	"errors"

	"quickbuild/internal/adapters/export/parquetfile"
	"quickbuild/internal/adapters/ingest/github"
	"quickbuild/internal/adapters/ingest/pagecache"
	"quickbuild/internal/adapters/sink/chsink"
	"quickbuild/internal/adapters/sink/pgsink"
	"quickbuild/internal/core/version"
	"quickbuild/internal/modkit"
	kitmodule "quickbuild/internal/modkit/module"
	"quickbuild/internal/platform/store/ch"
	"quickbuild/internal/platform/store/pg"
	"quickbuild/internal/services/runs/domain"
	"quickbuild/internal/services/runs/fetch"
	"quickbuild/internal/services/runs/ingest"
	"quickbuild/internal/services/runs/service"
)

// Ports defines the runs module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the runs module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports

	closers []func() error
}

var _ kitmodule.Module = (*Module)(nil)

var openPG = pg.Open // seam for tests

// New reads Options from deps.Cfg, applies overrides in order and validates the result.
// Sink connections are opened and pinged here so a bad DSN fails before any page is fetched
func New(ctx context.Context, deps modkit.Deps, overrides ...func(*Options)) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	for _, apply := range overrides {
		apply(&opts)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m := &Module{deps: deps, opts: opts}

	cache, err := pagecache.New(opts.ScratchDir)
	if err != nil {
		return nil, err
	}

	gh := github.NewClient(github.Options{
		BaseURL:   opts.GitHub.BaseURL,
		UserAgent: opts.GitHub.UserAgent,
		Timeout:   opts.GitHub.Timeout,
		Token:     opts.GitHub.Token,
	})
	src := ingest.NewSource(gh, opts.Repo, opts.PerPage)
	writer := parquetfile.New(opts.ScratchDir, opts.OutputName)

	sinks, err := m.openSinks(ctx)
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	svc := service.New(src, cache, writer, service.Config{
		OutDir: opts.OutDir,
		Fetch: fetch.Config{
			MaxPages:        opts.MaxPages,
			StopOnEmptyRuns: opts.StopOnEmptyRuns,
		},
	}, sinks...)

	m.ports = Ports{Runner: svc}
	return m, nil
}

func (m *Module) openSinks(ctx context.Context) ([]domain.Sink, error) {
	var sinks []domain.Sink

	if o := m.opts.ClickHouse; o.Enabled() {
		conn, err := ch.Open(ctx, ch.Config{URL: o.URL, Role: m.Name(), Tag: version.Info().Version})
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, conn.Close)
		if err := ch.Ping(ctx, conn); err != nil {
			return nil, err
		}
		s, err := chsink.New(conn, o.Table)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if o := m.opts.Postgres; o.Enabled() {
		p, err := openPG(ctx, pg.Config{
			URL:      o.URL,
			MaxConns: int32(o.MaxConns),
			AppName:  version.Info().Service,
			LogSQL:   o.LogSQL,
			SlowMs:   o.SlowMs,
		}, nil)
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, func() error { p.Close(); return nil })
		if err := p.Ping(ctx); err != nil {
			return nil, err
		}
		s, err := pgsink.New(p.Pool, o.Table)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	for _, s := range sinks {
		m.deps.Log.Info().Str("sink", s.Name()).Msg("sink enabled")
	}
	return sinks, nil
}

// Name returns the module name
func (m *Module) Name() string { return "runs" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the options after env and overrides were applied
func (m *Module) Options() Options { return m.opts }

// Close releases sink connections
func (m *Module) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}
