package verifier

import (
	"leadsync/internal/models"
	"strings"
	"time"
)

// Result is one provider verdict.
type Result struct {
	Email      string `json:"email"`
	State      string `json:"state"`
	Score      int    `json:"score"`
	Reason     string `json:"reason"`
	Free       bool   `json:"free"`
	Role       bool   `json:"role"`
	Disposable bool   `json:"disposable"`
	AcceptAll  bool   `json:"accept_all"`
}

// Status normalizes the provider state; anything unrecognized is unknown.
func (r Result) Status() string {
	switch strings.ToLower(strings.TrimSpace(r.State)) {
	case models.StatusDeliverable:
		return models.StatusDeliverable
	case models.StatusUndeliverable:
		return models.StatusUndeliverable
	case models.StatusRisky:
		return models.StatusRisky
	default:
		return models.StatusUnknown
	}
}

// Validation maps the verdict onto the lead validation block. validatedAt is
// the mapping time, not the provider's response time.
func (r Result) Validation(validatedAt time.Time) models.LeadValidation {
	score := min(max(r.Score, 0), 100)
	return models.LeadValidation{
		Status:        r.Status(),
		Score:         score,
		Reason:        strings.TrimSpace(r.Reason),
		IsFreeEmail:   r.Free,
		IsRoleAccount: r.Role,
		IsDisposable:  r.Disposable,
		IsAcceptAll:   r.AcceptAll,
		ValidatedAt:   models.FormatTimestamp(validatedAt),
	}
}

type BatchHandle struct {
	ID     string   `json:"id"`
	Emails []string `json:"-"`
}

const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchFailed     = "failed"
)

type BatchResult struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Results []Result `json:"emails"`
}

// ByEmail indexes results by lowercased address.
func (b BatchResult) ByEmail() map[string]Result {
	out := make(map[string]Result, len(b.Results))
	for _, r := range b.Results {
		out[strings.ToLower(strings.TrimSpace(r.Email))] = r
	}
	return out
}
