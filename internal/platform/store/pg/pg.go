// Package pg provides a Postgres client using pgxpool with optional query tracing
package pg

import (
	"context"

	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures pgxpool for pg
type Config struct {
	URL      string
	MaxConns int32
	AppName  string

	// LogSQL attaches Tracer to every connection
	LogSQL bool
	SlowMs int
}

// PG is a postgres client wrapping a pool
type PG struct {
	Pool *pgxpool.Pool
}

var newPool = pgxpool.NewWithConfig

// Open creates a new PG client with the given config and optional pool config mutator.
// The pool connects lazily; call Ping to verify reachability
func Open(ctx context.Context, cfg Config, poolCfgMut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse postgres url")
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	if cfg.LogSQL {
		pcfg.ConnConfig.Tracer = NewTracer(*logger.Get(), cfg.SlowMs)
	}
	if poolCfgMut != nil {
		poolCfgMut(pcfg)
	}
	pool, err := newPool(ctx, pcfg) // use seam
	if err != nil {
		return nil, perr.DBf(err, "open postgres pool")
	}
	return &PG{Pool: pool}, nil
}

// Ping checks one round trip to the server
func (p *PG) Ping(ctx context.Context) error {
	if err := p.Pool.Ping(ctx); err != nil {
		return perr.DBf(err, "ping postgres")
	}
	return nil
}

// Close closes the pool
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
