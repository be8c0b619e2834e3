// Package chsink loads the derived runs table into ClickHouse
package chsink

import (
	"context"
	"fmt"
	"strings"

	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"
	"quickbuild/internal/platform/validate"
	"quickbuild/internal/services/runs/domain"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// DefaultTable is used when no table is configured
const DefaultTable = "quickbuild_runs"

const ddl = `CREATE TABLE IF NOT EXISTS %s (
	head_commit_message String,
	created_at DateTime64(3, 'UTC'),
	updated_at DateTime64(3, 'UTC')
) ENGINE = MergeTree ORDER BY created_at`

// Sink replaces the contents of one table with the latest rows
type Sink struct {
	conn  driver.Conn
	table string
}

// New validates table and binds it to conn
func New(conn driver.Conn, table string) (*Sink, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := validate.Get().Validator.Var(table, "sqlident"); err != nil {
		return nil, perr.InvalidArgf("clickhouse table %q is not a plain identifier", table)
	}
	return &Sink{conn: conn, table: quote(table)}, nil
}

// quote backticks each dotted part of an already validated identifier
func quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = "`" + p + "`"
	}
	return strings.Join(parts, ".")
}

// Name implements domain.Sink
func (s *Sink) Name() string { return "clickhouse" }

// Write creates the table when missing, truncates it and inserts rows in one batch
func (s *Sink) Write(ctx context.Context, rows []domain.Row) error {
	if err := s.conn.Exec(ctx, fmt.Sprintf(ddl, s.table)); err != nil {
		return perr.DBf(err, "create %s", s.table)
	}
	if err := s.conn.Exec(ctx, "TRUNCATE TABLE "+s.table); err != nil {
		return perr.DBf(err, "truncate %s", s.table)
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+s.table+" (head_commit_message, created_at, updated_at)")
	if err != nil {
		return perr.DBf(err, "prepare insert into %s", s.table)
	}
	for _, r := range rows {
		if err := batch.Append(r.HeadCommitMessage, r.CreatedAt.UTC(), r.UpdatedAt.UTC()); err != nil {
			_ = batch.Abort()
			return perr.DBf(err, "append to %s", s.table)
		}
	}
	if err := batch.Send(); err != nil {
		return perr.DBf(err, "insert into %s", s.table)
	}

	logger.CNamed(ctx, "clickhouse").Info().
		Str("table", s.table).
		Int("rows", len(rows)).
		Msg("table replaced")
	return nil
}
