package transform

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	perr "quickbuild/internal/platform/errors"
	kit "quickbuild/internal/platform/testkit"
	"quickbuild/internal/services/runs/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleArray = `[
 {"head_commit":{"message":"build v1.2.3"},"created_at":"2023-01-01T00:00:00Z","updated_at":"2023-01-01T00:10:00Z","conclusion":"success"},
 {"head_commit":{"message":"docs update"},"created_at":"2023-01-02T00:00:00Z","updated_at":"2023-01-02T00:05:00Z","conclusion":"success"},
 {"head_commit":{"message":"build v1.2.4"},"created_at":"2023-01-03T00:00:00Z","updated_at":"2023-01-03T00:30:00Z","conclusion":"failure"}
]`

func decode(t *testing.T, s string) []domain.Run {
	t.Helper()
	var runs []domain.Run
	require.NoError(t, json.Unmarshal([]byte(s), &runs))
	return runs
}

func run(msg, created, updated string, conclusion any) string {
	b, _ := json.Marshal(map[string]any{
		"head_commit": map[string]any{"message": msg},
		"created_at":  created,
		"updated_at":  updated,
		"conclusion":  conclusion,
	})
	return string(b)
}

func TestTransform_Example(t *testing.T) {
	rows, err := Transform(decode(t, exampleArray))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "build v1.2.3", rows[0].HeadCommitMessage)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), rows[0].CreatedAt)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 10, 0, 0, time.UTC), rows[0].UpdatedAt)
	assert.Equal(t, 10*time.Minute, rows[0].Duration)
}

func TestTransform_Predicates(t *testing.T) {
	in := "[" + strings.Join([]string{
		run("build a", "2023-01-01T00:00:00Z", "2023-01-01T00:01:00Z", "success"),
		run("Build b", "2023-01-01T00:00:00Z", "2023-01-01T00:01:00Z", "success"),
		run("build", "2023-01-01T00:00:00Z", "2023-01-01T00:01:00Z", "success"),
		run(" build c", "2023-01-01T00:00:00Z", "2023-01-01T00:01:00Z", "success"),
		run("build d", "2023-01-01T00:00:00Z", "2023-01-01T00:01:00Z", nil),
		run("build e", "2023-01-01T00:00:00Z", "2023-01-01T00:01:00Z", "cancelled"),
		run("build f", "2023-01-01T00:00:00Z", "2023-01-01T00:01:00Z", "Success"),
	}, ",") + "]"

	rows, err := Transform(decode(t, in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "build a", rows[0].HeadCommitMessage)
}

func TestTransform_SortsByDurationStable(t *testing.T) {
	in := "[" + strings.Join([]string{
		run("build slow", "2023-01-01T00:00:00Z", "2023-01-01T01:00:00Z", "success"),
		run("build tie-1", "2023-01-02T00:00:00Z", "2023-01-02T00:05:00Z", "success"),
		run("build fast", "2023-01-03T00:00:00Z", "2023-01-03T00:00:30Z", "success"),
		run("build tie-2", "2023-01-04T00:00:00Z", "2023-01-04T00:05:00Z", "success"),
	}, ",") + "]"

	rows, err := Transform(decode(t, in))
	require.NoError(t, err)

	var got []string
	for i, r := range rows {
		got = append(got, r.HeadCommitMessage)
		if i > 0 {
			assert.LessOrEqual(t, rows[i-1].Duration, r.Duration)
		}
	}
	assert.Equal(t, []string{"build fast", "build tie-1", "build tie-2", "build slow"}, got)
}

func TestTransform_OffsetTimestampsNormalizeToUTC(t *testing.T) {
	in := "[" + run("build tz", "2023-01-01T02:00:00+02:00", "2023-01-01T00:03:00Z", "success") + "]"
	rows, err := Transform(decode(t, in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, time.UTC, rows[0].CreatedAt.Location())
	assert.Equal(t, 3*time.Minute, rows[0].Duration)
}

func TestTransform_EmptyInput(t *testing.T) {
	rows, err := Transform(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransform_InvalidRecordsFail(t *testing.T) {
	ok := run("build ok", "2023-01-01T00:00:00Z", "2023-01-01T00:01:00Z", "success")
	cases := []struct {
		name  string
		rec   string
		field string
	}{
		{"missing message", `{"head_commit":{},"created_at":"2023-01-01T00:00:00Z","updated_at":"2023-01-01T00:01:00Z","conclusion":"failure"}`, "head_commit.message"},
		{"null head_commit", `{"head_commit":null,"created_at":"2023-01-01T00:00:00Z","updated_at":"2023-01-01T00:01:00Z"}`, "head_commit"},
		{"missing created_at", `{"head_commit":{"message":"x"},"updated_at":"2023-01-01T00:01:00Z"}`, "created_at"},
		{"bad updated_at", `{"head_commit":{"message":"x"},"created_at":"2023-01-01T00:00:00Z","updated_at":"yesterday"}`, "updated_at"},
		{"null record", `null`, "created_at"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Transform(decode(t, "["+ok+","+tc.rec+"]"))
			require.Error(t, err)
			assert.True(t, perr.IsCode(err, perr.ErrorCodeValidation), "code %s", perr.CodeOf(err))

			e, isOurs := perr.As(err)
			require.True(t, isOurs)
			assert.Equal(t, tc.field, e.Field())
			assert.Equal(t, "run 1", e.Op())
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir + "/missing.json")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeIO))

	bad := kit.WriteFile(t, dir, "bad.json", `{"not":"an array"}`)
	_, err = Load(bad)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeJSON))
}

func TestRun_FromFile(t *testing.T) {
	path := kit.WriteFile(t, t.TempDir(), "runs-array.json", exampleArray)
	rows, err := Run(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "build v1.2.3", rows[0].HeadCommitMessage)
}
