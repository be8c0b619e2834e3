package module

import (
	"os"
	"path/filepath"
	"time"

	"quickbuild/internal/platform/config"
	"quickbuild/internal/platform/validate"
	"quickbuild/internal/services/runs/domain"
)

// Options holds configuration options for the runs pipeline
type Options struct {
	Repo            string `json:"repo" validate:"required,ownerrepo"`
	MaxPages        int    `json:"max_pages" validate:"min=1,max=10000"`
	PerPage         int    `json:"per_page" validate:"min=0,max=100"` // 0 leaves the API default
	ScratchDir      string `json:"scratch_dir" validate:"required"`
	OutDir          string `json:"out_dir" validate:"required"`
	OutputName      string `json:"output_name" validate:"required,excludes=/"`
	StopOnEmptyRuns bool   `json:"stop_on_empty_runs"`

	GitHub     GitHubOptions `json:"github"`
	ClickHouse SinkOptions     `json:"clickhouse"`
	Postgres   PostgresOptions `json:"postgres"`
}

// GitHubOptions configures the REST client
type GitHubOptions struct {
	BaseURL   string        `json:"base_url" validate:"required,url"`
	Token     string        `json:"-"`
	Timeout   time.Duration `json:"timeout" validate:"min=0"`
	UserAgent string        `json:"user_agent"`
}

// SinkOptions enables one database sink when URL is set
type SinkOptions struct {
	URL   string `json:"-"`
	Table string `json:"table" validate:"sqlident"`
}

// Enabled reports whether the sink has a DSN
func (s SinkOptions) Enabled() bool { return s.URL != "" }

// PostgresOptions enables the Postgres sink when URL is set and tunes its pool
type PostgresOptions struct {
	URL      string `json:"-"`
	Table    string `json:"table" validate:"sqlident"`
	MaxConns int    `json:"max_conns" validate:"min=0,max=1000"` // 0 keeps the pgxpool default
	LogSQL   bool   `json:"log_sql"`
	SlowMs   int    `json:"slow_ms" validate:"min=0"` // traced statements at or above this log at warn
}

// Enabled reports whether the sink has a DSN
func (p PostgresOptions) Enabled() bool { return p.URL != "" }

// DefaultScratchDir is the page cache location when none is configured
func DefaultScratchDir() string { return filepath.Join(os.TempDir(), "quickbuild-data") }

// FromConfig reads the runs options from config with RUNS_ prefix.
// OutDir is left empty; New callers supply it through an override
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("RUNS_")
	gh := rc.Prefix("GITHUB_")
	pgc := rc.Prefix("PGSQL_")
	return Options{
		Repo:            rc.MayString("REPO", domain.DefaultRepo),
		MaxPages:        rc.MayInt("MAX_PAGES", domain.DefaultMaxPages),
		PerPage:         rc.MayInt("PER_PAGE", 0),
		ScratchDir:      rc.MayDir("SCRATCH_DIR", DefaultScratchDir()),
		OutputName:      rc.MayString("OUTPUT_NAME", domain.OutputName),
		StopOnEmptyRuns: rc.MayBool("STOP_ON_EMPTY_RUNS", true),
		GitHub: GitHubOptions{
			BaseURL:   gh.MayURL("BASE_URL", "https://api.github.com"),
			Token:     gh.MayString("TOKEN", ""),
			Timeout:   gh.MayDuration("TIMEOUT", 30*time.Second),
			UserAgent: gh.MayString("USER_AGENT", "quickbuild-runs"),
		},
		ClickHouse: SinkOptions{
			URL:   rc.MayString("CLICKHOUSE_DBURL", ""),
			Table: rc.MayString("CLICKHOUSE_TABLE", ""),
		},
		Postgres: PostgresOptions{
			URL:      pgc.MayString("DBURL", ""),
			Table:    pgc.MayString("TABLE", ""),
			MaxConns: pgc.MayInt("MAX_CONNS", 4),
			LogSQL:   pgc.MayBool("LOG_SQL", false),
			SlowMs:   pgc.MayInt("SLOW_MS", 500),
		},
	}
}

// Validate checks the options with the shared validator
func (o Options) Validate() error { return validate.Struct(o) }
