// Package aggregate flattens cached runs pages into one combined array file
package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"quickbuild/internal/adapters/ingest/pagecache"
	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// RunsExpr selects the run list out of one page envelope
const RunsExpr = "workflow_runs"

// Aggregator reads every page file in page order and writes the combined array
type Aggregator struct {
	cache *pagecache.Cache
	expr  string
}

// New constructs an Aggregator over cache
func New(cache *pagecache.Cache) *Aggregator {
	if _, err := jmespath.Compile(RunsExpr); err != nil {
		panic(err)
	}
	return &Aggregator{cache: cache, expr: RunsExpr}
}

// Run writes runs-array.json and returns how many runs it holds.
// A page that is not JSON, or lacks a workflow_runs array, fails the whole stage.
func (a *Aggregator) Run(ctx context.Context) (int, error) {
	log := logger.CNamed(ctx, "aggregate")

	entries, err := a.cache.Pages()
	if err != nil {
		return 0, err
	}

	combined := make([]any, 0, len(entries)*100)
	for _, e := range entries {
		if e.Size == 0 {
			continue
		}
		runs, err := a.extract(e.Path)
		if err != nil {
			return 0, err
		}
		log.Debug().Int("page", e.Page).Int("runs", len(runs)).Msg("page flattened")
		combined = append(combined, runs...)
	}

	if err := pagecache.WriteAtomic(a.cache.ArrayPath(), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(combined)
	}); err != nil {
		return 0, err
	}

	log.Info().Int("pages", len(entries)).Int("runs", len(combined)).Str("path", a.cache.ArrayPath()).Msg("combined array written")
	return len(combined), nil
}

func (a *Aggregator) extract(path string) ([]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.IOf(err, "read %s", path)
	}

	// numbers stay json.Number so run and check-suite ids round-trip exactly
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "parse %s", path)
	}
	if dec.More() {
		return nil, perr.JSONErrf("parse %s: unexpected trailing data", path)
	}

	res, err := jmespath.Search(a.expr, doc)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "search %q in %s", a.expr, path)
	}
	runs, ok := res.([]any)
	if !ok {
		return nil, perr.WithField(perr.JSONErrf("%s: %s is not an array", path, a.expr), a.expr)
	}
	return runs, nil
}
