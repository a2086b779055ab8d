package internal

import (
	"context"
	"leadsync/internal/journal/interfaces"
	"leadsync/internal/models"
	"leadsync/internal/oauth"
	"leadsync/internal/providers"
	"leadsync/internal/services"
)

// Runner executes the two entry points once, outside the HTTP server.
type Runner struct {
	tokens     *oauth.Factory
	validation services.ValidationServiceInterface
	stats      services.StatsServiceInterface
	scheduler  interfaces.SchedulerInterface
	logger     providers.Logger
}

func NewRunner(tokens *oauth.Factory, validation services.ValidationServiceInterface, stats services.StatsServiceInterface, scheduler interfaces.SchedulerInterface, logger providers.Logger) *Runner {
	return &Runner{
		tokens:     tokens,
		validation: validation,
		stats:      stats,
		scheduler:  scheduler,
		logger:     logger,
	}
}

// Validate runs one validation pass and appends its report to the journal.
// The returned state carries rotated tokens when a refresh happened.
func (r *Runner) Validate(ctx context.Context, projectID string, state oauth.TokenState) (*models.ValidationReport, oauth.TokenState, error) {
	if err := r.scheduler.Restore(); err != nil {
		r.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	store := r.tokens.New(state)

	report, err := r.validation.ValidateProject(ctx, projectID, store.AccessToken)
	if report != nil {
		if perr := r.scheduler.Persist(); perr != nil {
			r.logger.Errorf(providers.TypeApp, "Persist error: %s", perr)
		}
	}
	return report, store.State(), err
}

func (r *Runner) Stats(ctx context.Context, projectID string, forceRefresh bool, state oauth.TokenState) (*models.CampaignStats, oauth.TokenState, error) {
	store := r.tokens.New(state)
	stats, err := r.stats.GetCampaignStats(ctx, projectID, store.AccessToken, forceRefresh)
	return stats, store.State(), err
}
