package github

import "encoding/json"

// RunsPage is the envelope of GET /repos/{owner}/{repo}/actions/runs.
// Runs stay raw; the aggregate stage works on the original bytes.
type RunsPage struct {
	TotalCount   int               `json:"total_count"`
	WorkflowRuns []json.RawMessage `json:"workflow_runs"`
}

// CountRuns reports how many runs a page body holds.
// ok is false when the body is not a runs envelope (not JSON, or no workflow_runs array)
func CountRuns(body []byte) (n int, ok bool) {
	var p RunsPage
	if err := json.Unmarshal(body, &p); err != nil {
		return 0, false
	}
	if p.WorkflowRuns == nil {
		return 0, false
	}
	return len(p.WorkflowRuns), true
}
