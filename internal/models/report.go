package models

import "time"

type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeAlreadyValidated Outcome = "already_validated"
	OutcomePartialFailure   Outcome = "partial_failure"
)

// ValidationReport is the aggregate result of one validation run. Per-record
// errors are capped to a small sample.
type ValidationReport struct {
	RunID           string    `json:"run_id"`
	ProjectID       string    `json:"project_id"`
	Outcome         Outcome   `json:"outcome"`
	Validated       int       `json:"validated"`
	Deliverable     int       `json:"deliverable"`
	Undeliverable   int       `json:"undeliverable"`
	Risky           int       `json:"risky"`
	Unknown         int       `json:"unknown"`
	UpdateSuccesses int       `json:"update_successes"`
	UpdateFailures  int       `json:"update_failures"`
	VerifyFailures  int       `json:"verify_failures"`
	ProviderCalls   int       `json:"provider_calls"`
	CacheHits       int       `json:"cache_hits"`
	Errors          []string  `json:"errors,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
}

// Count tallies one validation status.
func (r *ValidationReport) Count(status string) {
	r.Validated++
	switch status {
	case StatusDeliverable:
		r.Deliverable++
	case StatusUndeliverable:
		r.Undeliverable++
	case StatusRisky:
		r.Risky++
	default:
		r.Unknown++
	}
}

// AddError keeps at most limit messages.
func (r *ValidationReport) AddError(limit int, msg string) {
	if len(r.Errors) < limit {
		r.Errors = append(r.Errors, msg)
	}
}

// Failed is the number of records the run could not complete.
func (r *ValidationReport) Failed() int {
	return r.UpdateFailures + r.VerifyFailures
}
