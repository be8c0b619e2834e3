// Package domain holds the data shapes and ports of the runs pipeline
package domain

import "time"

const (
	// OutputName is the parquet file deposited in the caller's directory
	OutputName = "runs.parquet"

	// DefaultRepo is the repository whose runs are listed when none is configured
	DefaultRepo = "alsuren/cargo-quickinstall"

	// DefaultMaxPages bounds pagination
	DefaultMaxPages = 100
)

// StatusError is implemented by source errors that carry an HTTP status
type StatusError interface {
	error
	HTTPStatus() int
}

// Page is one raw response of the runs listing
type Page struct {
	Number int
	Body   []byte

	// Runs is the length of workflow_runs, or -1 when the body has no such array
	Runs int
}

// StopReason says why pagination ended
type StopReason string

// Stop reasons
const (
	StopLimit     StopReason = "limit"
	StopFailed    StopReason = "request_failed"
	StopEmptyBody StopReason = "empty_body"
	StopEmptyRuns StopReason = "empty_runs"
)

// FetchStats summarizes one fetch stage
type FetchStats struct {
	Fetched    int
	Skipped    int
	StoppedAt  int // page number that ended pagination; 0 when the limit was reached
	StopReason StopReason
	StopStatus int // HTTP status of the failed request, 0 when there was none

	// Unrecognized lists cached pages whose body had no workflow_runs array.
	// They fail the aggregate stage until their file is removed
	Unrecognized []int
}

// HeadCommit is the part of the triggering commit we read
type HeadCommit struct {
	Message *string `json:"message" validate:"required"`
}

// Run is one workflow run record as found in the combined array.
// Timestamps stay strings until the transform parses them so a bad value is reported, not zeroed.
type Run struct {
	CreatedAt  *string     `json:"created_at" validate:"required"`
	UpdatedAt  *string     `json:"updated_at" validate:"required"`
	Conclusion *string     `json:"conclusion"`
	HeadCommit *HeadCommit `json:"head_commit" validate:"required"`
}

// Row is a derived output row. Duration orders the table and is not persisted
type Row struct {
	HeadCommitMessage string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Duration          time.Duration
}

// Report summarizes a whole pipeline run
type Report struct {
	Fetch      FetchStats
	Aggregated int
	Kept       int
	OutputPath string
	Sinks      []string
}
