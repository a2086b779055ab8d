package services

import (
	"context"
	"errors"
	"fmt"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"leadsync/internal/apperrors"
	"leadsync/internal/locks"
	"leadsync/internal/models"
	"leadsync/internal/providers"
	"leadsync/internal/sheets"
	"leadsync/internal/structures"
	"leadsync/internal/verifier"
	"strings"
	"time"
)

const verifyCachePrefix = "verify:"

// EmailVerifier is the provider client as the orchestrator uses it.
type EmailVerifier interface {
	VerifyOne(ctx context.Context, email string) (verifier.Result, error)
	VerifyBatch(ctx context.Context, emails []string) (verifier.BatchHandle, error)
	PollBatch(ctx context.Context, handle verifier.BatchHandle) (verifier.BatchResult, error)
	Pace(ctx context.Context) error
}

type ValidationServiceInterface interface {
	ValidateProject(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) (*models.ValidationReport, error)
}

// ValidationService runs one validation pass per call: lock the project,
// load the unvalidated leads, verify their addresses and write the results
// back with merge-preserve updates. The lock is released on every exit.
type ValidationService struct {
	stores         *StoreFactory
	lock           locks.ProjectLock
	verifier       EmailVerifier
	cache          providers.CacheProviderInterface
	reports        ReportServiceInterface
	logger         providers.Logger
	metrics        providers.MetricsProviderInterface
	batchThreshold int
	errorSample    int
	now            func() time.Time
}

func NewValidationService(
	conf *structures.Config,
	stores *StoreFactory,
	lock locks.ProjectLock,
	emailVerifier EmailVerifier,
	cache providers.CacheProviderInterface,
	reports ReportServiceInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) ValidationServiceInterface {
	return &ValidationService{
		stores:         stores,
		lock:           lock,
		verifier:       emailVerifier,
		cache:          cache,
		reports:        reports,
		logger:         logger,
		metrics:        metrics,
		batchThreshold: max(conf.Validation.BatchThreshold, 1),
		errorSample:    max(conf.Validation.ErrorSampleSize, 1),
		now:            time.Now,
	}
}

// workItem is one distinct address and every lead carrying it.
type workItem struct {
	email   string
	leadIDs []string
}

func (vs *ValidationService) ValidateProject(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) (*models.ValidationReport, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", apperrors.ErrInvalidInput)
	}
	started := vs.now()

	acquired, err := vs.lock.TryAcquire(ctx, projectID)
	if err != nil {
		vs.metrics.ObserveValidationRun("error", time.Since(started))
		return nil, fmt.Errorf("lock project %s: %w", projectID, err)
	}
	if !acquired {
		vs.metrics.IncLockConflicts()
		vs.logger.Infof(providers.TypeSync, "Validation for project %s already running", projectID)
		return nil, fmt.Errorf("project %s: %w", projectID, apperrors.ErrConflict)
	}
	defer func() {
		if err := vs.lock.Release(context.WithoutCancel(ctx), projectID); err != nil {
			vs.logger.Errorf(providers.TypeSync, "Releasing lock for project %s: %s", projectID, err)
		}
	}()

	report := &models.ValidationReport{
		RunID:     uuid.NewString(),
		ProjectID: projectID,
		StartedAt: started,
	}
	if err := vs.run(ctx, report, vs.stores.Open(tokens)); err != nil {
		vs.metrics.ObserveValidationRun("error", time.Since(started))
		vs.logger.Errorf(providers.TypeSync, "Validation run %s for project %s aborted: %s", report.RunID, projectID, err)
		return nil, err
	}

	report.FinishedAt = vs.now()
	vs.metrics.ObserveValidationRun(string(report.Outcome), time.Since(started))
	vs.reports.Put(report)
	vs.logger.Infof(providers.TypeSync,
		"Validation run %s for project %s: outcome=%s validated=%d deliverable=%d undeliverable=%d risky=%d unknown=%d updates=%d/%d verify_failures=%d",
		report.RunID, projectID, report.Outcome, report.Validated, report.Deliverable, report.Undeliverable, report.Risky, report.Unknown,
		report.UpdateSuccesses, report.UpdateSuccesses+report.UpdateFailures, report.VerifyFailures)
	return report, nil
}

func (vs *ValidationService) run(ctx context.Context, report *models.ValidationReport, stores *Stores) error {
	leads, err := stores.Leads.FilterByField(ctx, models.LeadProjectID, report.ProjectID)
	if err != nil {
		return err
	}
	if len(leads) == 0 {
		return fmt.Errorf("leads of project %s: %w", report.ProjectID, apperrors.ErrNotFound)
	}

	work := buildWorkList(leads)
	if len(work) == 0 {
		// nothing new to verify: summarize what is already there
		report.Outcome = models.OutcomeSuccess
		for _, l := range leads {
			if l.Validated() {
				report.Count(l.Validation.Status)
				report.Outcome = models.OutcomeAlreadyValidated
			}
		}
		return nil
	}

	results, err := vs.verify(ctx, report, work)
	if err != nil {
		return err
	}

	validatedAt := vs.now()
	for _, item := range work {
		res, ok := results[item.email]
		if !ok {
			continue
		}
		validation := res.Validation(validatedAt)
		for _, id := range item.leadIDs {
			err := stores.Leads.UpdateByKey(ctx, id, validation.Update())
			if err != nil {
				if fatal(ctx, err) {
					return err
				}
				report.UpdateFailures++
				report.AddError(vs.errorSample, fmt.Sprintf("lead %s: %s", id, apperrors.Summary(err)))
				vs.logger.Warnf(providers.TypeSync, "Writing validation of lead %s failed: %s", id, err)
				continue
			}
			report.UpdateSuccesses++
			report.Count(validation.Status)
		}
	}

	report.Outcome = models.OutcomeSuccess
	if report.Failed() > 0 {
		report.Outcome = models.OutcomePartialFailure
	}
	return nil
}

// buildWorkList keeps leads with an address and no verdict, one entry per
// distinct address in first-seen order.
func buildWorkList(leads []models.Lead) []*workItem {
	byEmail := make(map[string]*workItem)
	out := make([]*workItem, 0)
	for _, l := range leads {
		email := l.NormalizedEmail()
		if email == "" || l.Validated() {
			continue
		}
		item, ok := byEmail[email]
		if !ok {
			item = &workItem{email: email}
			byEmail[email] = item
			out = append(out, item)
		}
		item.leadIDs = append(item.leadIDs, l.ID)
	}
	return out
}

// verify resolves every work item from the cache or the provider. Items the
// provider could not answer are counted and left out of the result.
func (vs *ValidationService) verify(ctx context.Context, report *models.ValidationReport, work []*workItem) (map[string]verifier.Result, error) {
	results := make(map[string]verifier.Result, len(work))
	pending := make([]*workItem, 0, len(work))
	for _, item := range work {
		if res, ok := vs.cached(item.email); ok {
			results[item.email] = res
			report.CacheHits++
			continue
		}
		pending = append(pending, item)
	}
	if len(pending) == 0 {
		return results, nil
	}

	fail := func(item *workItem, err error) {
		report.VerifyFailures += len(item.leadIDs)
		report.AddError(vs.errorSample, fmt.Sprintf("%s: %s", item.email, apperrors.Summary(err)))
		vs.logger.Warnf(providers.TypeSync, "Verifying %s failed: %s", item.email, err)
	}

	if len(pending) > vs.batchThreshold {
		emails := make([]string, 0, len(pending))
		for _, item := range pending {
			emails = append(emails, item.email)
		}
		report.ProviderCalls += len(emails)
		batch, err := vs.verifyBatch(ctx, emails)
		if err != nil {
			if fatal(ctx, err) {
				return nil, err
			}
			for _, item := range pending {
				fail(item, err)
			}
			return results, nil
		}
		byEmail := batch.ByEmail()
		for _, item := range pending {
			res, ok := byEmail[item.email]
			if !ok {
				fail(item, errors.New("missing from batch result"))
				continue
			}
			results[item.email] = res
			vs.remember(item.email, res)
		}
		return results, nil
	}

	for _, item := range pending {
		if err := vs.verifier.Pace(ctx); err != nil {
			return nil, err
		}
		report.ProviderCalls++
		res, err := vs.verifier.VerifyOne(ctx, item.email)
		if err != nil {
			if fatal(ctx, err) {
				return nil, err
			}
			fail(item, err)
			continue
		}
		results[item.email] = res
		vs.remember(item.email, res)
	}
	return results, nil
}

func (vs *ValidationService) verifyBatch(ctx context.Context, emails []string) (verifier.BatchResult, error) {
	handle, err := vs.verifier.VerifyBatch(ctx, emails)
	if err != nil {
		return verifier.BatchResult{}, err
	}
	vs.logger.Infof(providers.TypeSync, "Submitted verification batch %s with %d addresses", handle.ID, len(emails))
	return vs.verifier.PollBatch(ctx, handle)
}

func (vs *ValidationService) cached(email string) (verifier.Result, bool) {
	raw, ok := vs.cache.Get(verifyCachePrefix + email)
	if !ok {
		return verifier.Result{}, false
	}
	var res verifier.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return verifier.Result{}, false
	}
	return res, true
}

func (vs *ValidationService) remember(email string, res verifier.Result) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	vs.cache.Set(verifyCachePrefix+email, raw)
}

// fatal errors end the run: the caller has to re-authenticate or has gone away.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, apperrors.ErrAuthRequired)
}
