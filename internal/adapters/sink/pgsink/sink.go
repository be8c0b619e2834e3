// Package pgsink loads the derived runs table into Postgres
package pgsink

import (
	"context"
	"fmt"
	"strings"

	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"
	"quickbuild/internal/platform/validate"
	"quickbuild/internal/services/runs/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultTable is used when no table is configured
const DefaultTable = "quickbuild_runs"

var columns = []string{"head_commit_message", "created_at", "updated_at"}

// DB is the part of pgxpool.Pool the sink uses
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Sink replaces the contents of one table with the latest rows
type Sink struct {
	db    DB
	ident pgx.Identifier
}

// New validates table and binds it to db
func New(db DB, table string) (*Sink, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := validate.Get().Validator.Var(table, "sqlident"); err != nil {
		return nil, perr.InvalidArgf("postgres table %q is not a plain identifier", table)
	}
	return &Sink{db: db, ident: pgx.Identifier(strings.Split(table, "."))}, nil
}

// Name implements domain.Sink
func (s *Sink) Name() string { return "postgres" }

// Write creates the table when missing, then deletes and copies rows in one transaction
func (s *Sink) Write(ctx context.Context, rows []domain.Row) error {
	table := s.ident.Sanitize()
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	head_commit_message text NOT NULL,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
)`, table)
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return perr.DBf(err, "create %s", table)
	}

	var copied int64
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return perr.DBf(err, "clear %s", table)
		}
		n, err := tx.CopyFrom(ctx, s.ident, columns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.HeadCommitMessage, r.CreatedAt.UTC(), r.UpdatedAt.UTC()}, nil
		}))
		if err != nil {
			return perr.DBf(err, "copy into %s", table)
		}
		copied = n
		return nil
	})
	if err != nil {
		if _, ok := perr.As(err); ok {
			return err
		}
		return perr.DBf(err, "replace %s", table)
	}

	logger.CNamed(ctx, "postgres").Info().
		Str("table", table).
		Int64("rows", copied).
		Msg("table replaced")
	return nil
}
