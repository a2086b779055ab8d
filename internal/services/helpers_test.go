package services

import (
	"context"
	"leadsync/internal/apperrors"
	"leadsync/internal/models"
	"leadsync/internal/records"
	"leadsync/internal/sheets"
	"leadsync/internal/structures"
	"leadsync/internal/testutil"
	"leadsync/internal/verifier"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() *structures.Config {
	return &structures.Config{
		Persistence: structures.Persistence{MaxReportsPerProject: 5},
		Validation: structures.ValidationConfig{
			BatchThreshold:  10,
			ErrorSampleSize: 10,
		},
	}
}

func staticTokens(ctx context.Context) (string, error) {
	return "token", nil
}

var _ sheets.AccessTokenProvider = staticTokens

func newTestFactory(t *testing.T, conf *structures.Config, table *testutil.MemoryTable) *StoreFactory {
	t.Helper()
	factory, err := NewStoreFactoryWithTable(conf, func(sheets.AccessTokenProvider) records.TableAPI {
		return table
	}, &testutil.MockLogger{}, &testutil.MockMetrics{})
	require.NoError(t, err)
	return factory
}

// leadRow builds a full-width lead row; status fills validation_status.
func leadRow(id, project, email, status string) []string {
	row := make([]string, models.LeadSchema().Width())
	row[0] = id
	row[1] = project
	row[2] = "Name " + id
	row[3] = email
	row[4] = "Acme"
	row[9] = "import"
	if status != "" {
		row[13] = status
		row[14] = "88"
		row[15] = "previous_run"
		row[20] = "2025-12-01T09:00:00Z"
	}
	return row
}

type fakeVerifier struct {
	mu       sync.Mutex
	results  map[string]verifier.Result
	errs     map[string]error
	calls    []string
	batches  [][]string
	batch    *verifier.BatchResult
	batchErr error
	paced    int

	// entered is signalled and block awaited by VerifyOne when set
	entered chan struct{}
	block   chan struct{}
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		results: make(map[string]verifier.Result),
		errs:    make(map[string]error),
	}
}

func (f *fakeVerifier) VerifyOne(ctx context.Context, email string) (verifier.Result, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, email)
	if err := f.errs[email]; err != nil {
		return verifier.Result{}, err
	}
	if res, ok := f.results[email]; ok {
		return res, nil
	}
	return verifier.Result{Email: email, State: "unknown"}, nil
}

func (f *fakeVerifier) VerifyBatch(ctx context.Context, emails []string) (verifier.BatchHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, emails)
	if f.batchErr != nil {
		return verifier.BatchHandle{}, f.batchErr
	}
	return verifier.BatchHandle{ID: "batch-1", Emails: emails}, nil
}

func (f *fakeVerifier) PollBatch(ctx context.Context, handle verifier.BatchHandle) (verifier.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batch == nil {
		return verifier.BatchResult{}, &apperrors.RemoteError{Service: "verifier", Status: 504}
	}
	return *f.batch, nil
}

func (f *fakeVerifier) Pace(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paced++
	return ctx.Err()
}

func (f *fakeVerifier) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func deliverable(email string) verifier.Result {
	return verifier.Result{Email: email, State: "deliverable", Score: 95, Reason: "accepted_email", Free: strings.HasSuffix(email, "gmail.com")}
}
