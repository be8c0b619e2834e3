// Package ch provides a ClickHouse connection built from a DSN
package ch

import (
	"context"

	perr "quickbuild/internal/platform/errors"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures the clickhouse connection
type Config struct {
	URL string

	// Role and Tag are reported to the server as client info
	Role string
	Tag  string
}

var openConn = clickhouse.Open

// Open parses the DSN and returns a native protocol connection. Nothing is dialed until first use
func Open(_ context.Context, cfg Config) (driver.Conn, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse clickhouse url")
	}
	opts.ClientInfo = BuildClientInfo(cfg.Role, cfg.Tag)
	conn, err := openConn(opts)
	if err != nil {
		return nil, perr.DBf(err, "open clickhouse")
	}
	return conn, nil
}

// Ping checks one round trip to the server
func Ping(ctx context.Context, conn driver.Conn) error {
	if err := conn.Ping(ctx); err != nil {
		return perr.DBf(err, "ping clickhouse")
	}
	return nil
}
