package pg

import (
	"context"
	"time"

	"quickbuild/internal/platform/logger"

	"github.com/jackc/pgx/v5"
)

type traceKey struct{}

type traceStart struct {
	sql   string
	args  []any
	start time.Time
}

// Tracer logs every query pgx runs, at warn when it is slower than SlowMs (0 disables the slow mark)
type Tracer struct {
	SlowMs int

	log logger.Logger
	now func() time.Time
}

var _ pgx.QueryTracer = (*Tracer)(nil)

// NewTracer returns a Tracer writing to root with a postgres component field
func NewTracer(root logger.Logger, slowMs int) *Tracer {
	return &Tracer{
		SlowMs: slowMs,
		log:    root.With().Str("component", "postgres").Logger(),
		now:    time.Now,
	}
}

// TraceQueryStart stashes the statement on ctx
func (t *Tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{sql: data.SQL, args: data.Args, start: t.now()})
}

// TraceQueryEnd logs the statement stashed by TraceQueryStart
func (t *Tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	st, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	elapsed := t.now().Sub(st.start)
	slow := t.SlowMs > 0 && elapsed >= time.Duration(t.SlowMs)*time.Millisecond

	evt := t.log.Debug()
	if slow {
		evt = t.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000.0).
		Bool("slow", slow).
		Str("sql", compact(st.sql)).
		Int("args", len(st.args)).
		Str("tag", data.CommandTag.String()).
		Err(data.Err).
		Msg("pg query")
}

func compact(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' || r == ' ' {
			if !space {
				out = append(out, ' ')
				space = true
			}
			continue
		}
		space = false
		out = append(out, r)
	}
	return string(out)
}
