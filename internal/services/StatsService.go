package services

import (
	"context"
	"errors"
	"fmt"
	"leadsync/internal/apperrors"
	"leadsync/internal/models"
	"leadsync/internal/providers"
	"leadsync/internal/sheets"
	"leadsync/internal/structures"
	"strings"
	"time"
)

// StatsRefresher asks the workflow backend to recompute campaign stats.
type StatsRefresher interface {
	Enabled() bool
	RefreshStats(ctx context.Context, projectID string) error
}

type StatsServiceInterface interface {
	Fetch(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) (*models.CampaignStats, error)
	RefreshThenFetch(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) (*models.CampaignStats, error)
	GetCampaignStats(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider, forceRefresh bool) (*models.CampaignStats, error)
}

// StatsService reads campaign stats rows written by the workflow backend.
// RefreshThenFetch only gives the backend time to catch up; it is not a
// read-your-writes guarantee.
type StatsService struct {
	stores      *StoreFactory
	refresher   StatsRefresher
	logger      providers.Logger
	initialWait time.Duration
	retryWait   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewStatsService(conf *structures.Config, stores *StoreFactory, refresher StatsRefresher, logger providers.Logger) StatsServiceInterface {
	return &StatsService{
		stores:      stores,
		refresher:   refresher,
		logger:      logger,
		initialWait: conf.Workflow.InitialWait,
		retryWait:   conf.Workflow.RetryWait,
		sleep:       sleepContext,
	}
}

func (ss *StatsService) GetCampaignStats(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider, forceRefresh bool) (*models.CampaignStats, error) {
	if forceRefresh {
		return ss.RefreshThenFetch(ctx, projectID, tokens)
	}
	return ss.Fetch(ctx, projectID, tokens)
}

// Fetch returns the most recently created stats row of the project.
func (ss *StatsService) Fetch(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) (*models.CampaignStats, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", apperrors.ErrInvalidInput)
	}
	rows, err := ss.stores.Open(tokens).Stats.FilterByField(ctx, models.StatsProjectID, projectID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("campaign stats of project %s: %w", projectID, apperrors.ErrNotFound)
	}
	if len(rows) > 1 {
		ss.logger.Warnf(providers.TypeSync, "Project %s has %d campaign stats rows, using the most recent", projectID, len(rows))
	}
	latest := selectLatest(rows)
	return &latest, nil
}

func (ss *StatsService) RefreshThenFetch(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) (*models.CampaignStats, error) {
	if ss.refresher != nil && ss.refresher.Enabled() {
		if err := ss.refresher.RefreshStats(ctx, projectID); err != nil {
			ss.logger.Warnf(providers.TypeSync, "Stats refresh for project %s failed: %s", projectID, err)
		}
	}
	if err := ss.sleep(ctx, ss.initialWait); err != nil {
		return nil, err
	}
	stats, err := ss.Fetch(ctx, projectID, tokens)
	if !errors.Is(err, apperrors.ErrNotFound) {
		return stats, err
	}
	if err := ss.sleep(ctx, ss.retryWait); err != nil {
		return nil, err
	}
	return ss.Fetch(ctx, projectID, tokens)
}

// selectLatest picks the row with the latest parseable created_at. Rows with
// equal or unparseable timestamps fall back to row order, later wins.
func selectLatest(rows []models.CampaignStats) models.CampaignStats {
	best := rows[0]
	bestAt, bestOK := models.ParseTimestamp(best.CreatedAt)
	for _, r := range rows[1:] {
		at, ok := models.ParseTimestamp(r.CreatedAt)
		switch {
		case ok && bestOK && at.Before(bestAt):
			continue
		case !ok && bestOK:
			continue
		}
		best, bestAt, bestOK = r, at, ok
	}
	return best
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
