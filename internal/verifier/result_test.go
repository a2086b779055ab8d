package verifier

import (
	"leadsync/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResult_ValidationMapping(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	v := Result{State: " Deliverable ", Score: 140, Reason: "accepted_email ", Role: true, AcceptAll: true}.Validation(at)

	assert.Equal(t, models.StatusDeliverable, v.Status)
	assert.Equal(t, 100, v.Score)
	assert.Equal(t, "accepted_email", v.Reason)
	assert.True(t, v.IsRoleAccount)
	assert.True(t, v.IsAcceptAll)
	assert.False(t, v.IsFreeEmail)
	assert.Equal(t, models.FormatTimestamp(at), v.ValidatedAt)
}

func TestResult_UnknownStates(t *testing.T) {
	for _, state := range []string{"", "catch_all", "UNKNOWN", "error"} {
		assert.Equal(t, models.StatusUnknown, Result{State: state}.Status(), state)
	}
}
