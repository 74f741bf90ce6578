package models

import "time"

// ScenarioStatus is the outcome of one scenario
type ScenarioStatus string

const (
	ScenarioPassed  ScenarioStatus = "passed"
	ScenarioFailed  ScenarioStatus = "failed"
	ScenarioSkipped ScenarioStatus = "skipped"
)

// ScenarioResult records one scenario execution within a run
type ScenarioResult struct {
	RunID       string         `json:"run_id"`
	Scenario    string         `json:"scenario"`
	Status      ScenarioStatus `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    time.Duration  `json:"duration"`
	Error       string         `json:"error,omitempty"`
	Screenshots []string       `json:"screenshots,omitempty"`
	PageCapture string         `json:"page_capture,omitempty"` // Markdown rendering of the page at failure
}

// RunSummary aggregates the results of one run
type RunSummary struct {
	RunID      string           `json:"run_id" badgerhold:"key"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	BaseURL    string           `json:"base_url"`
	Results    []ScenarioResult `json:"results"`
}

// Counts returns passed, failed and skipped totals
func (s *RunSummary) Counts() (passed, failed, skipped int) {
	for _, r := range s.Results {
		switch r.Status {
		case ScenarioPassed:
			passed++
		case ScenarioFailed:
			failed++
		case ScenarioSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Succeeded reports whether no scenario failed
func (s *RunSummary) Succeeded() bool {
	_, failed, _ := s.Counts()
	return failed == 0
}
