// Package transform turns the combined runs array into the sorted output table
package transform

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	perr "quickbuild/internal/platform/errors"
	"quickbuild/internal/platform/logger"
	"quickbuild/internal/platform/validate"
	"quickbuild/internal/services/runs/domain"
)

const (
	// MessagePrefix is what a kept run's head commit message starts with
	MessagePrefix = "build "

	// SuccessConclusion is the conclusion a kept run finished with
	SuccessConclusion = "success"
)

// Load decodes the combined array file
func Load(path string) ([]domain.Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.IOf(err, "read %s", path)
	}
	var runs []domain.Run
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&runs); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "parse %s", path)
	}
	return runs, nil
}

// Transform derives duration and head_commit_message for every run, keeps successful "build " runs,
// and sorts them by ascending duration (ties keep input order).
// Any run missing a timestamp or head_commit.message fails the whole table, kept or not.
func Transform(runs []domain.Run) ([]domain.Row, error) {
	rows := make([]domain.Row, 0, len(runs))
	for i, r := range runs {
		row, err := derive(r)
		if err != nil {
			return nil, perr.WithOp(err, "run "+strconv.Itoa(i))
		}
		if !strings.HasPrefix(row.HeadCommitMessage, MessagePrefix) {
			continue
		}
		if r.Conclusion == nil || *r.Conclusion != SuccessConclusion {
			continue
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b domain.Row) int { return cmp.Compare(a.Duration, b.Duration) })
	return rows, nil
}

func derive(r domain.Run) (domain.Row, error) {
	if err := validate.Struct(r); err != nil {
		return domain.Row{}, err
	}
	created, err := parseTime("created_at", *r.CreatedAt)
	if err != nil {
		return domain.Row{}, err
	}
	updated, err := parseTime("updated_at", *r.UpdatedAt)
	if err != nil {
		return domain.Row{}, err
	}
	return domain.Row{
		HeadCommitMessage: *r.HeadCommit.Message,
		CreatedAt:         created,
		UpdatedAt:         updated,
		Duration:          updated.Sub(created),
	}, nil
}

func parseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "%s is not a timestamp", field), field)
	}
	return t.UTC(), nil
}

// Run loads path and transforms it, logging the kept count
func Run(ctx context.Context, path string) ([]domain.Row, error) {
	runs, err := Load(path)
	if err != nil {
		return nil, err
	}
	rows, err := Transform(runs)
	if err != nil {
		return nil, err
	}
	logger.CNamed(ctx, "transform").Info().
		Int("runs", len(runs)).
		Int("kept", len(rows)).
		Str("prefix", MessagePrefix).
		Msg("runs filtered")
	return rows, nil
}
