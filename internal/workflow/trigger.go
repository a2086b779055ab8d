// Package workflow fires the external stats refresh hook.
package workflow

import (
	"bytes"
	"context"
	"fmt"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"io"
	"leadsync/internal/apperrors"
	"leadsync/internal/providers"
	"leadsync/internal/structures"
	"net/http"
	"strings"
	"time"
)

type refreshRequest struct {
	ProjectID string `json:"project_id"`
	Timestamp string `json:"timestamp"`
}

// Trigger posts a refresh request and does not wait for the refresh itself.
type Trigger struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
	logger     providers.Logger
}

func NewTrigger(conf *structures.Config, logger providers.Logger) *Trigger {
	return &Trigger{
		url:        strings.TrimSpace(conf.Workflow.StatsRefreshURL),
		httpClient: &http.Client{Timeout: conf.Workflow.Timeout},
		now:        time.Now,
		logger:     logger,
	}
}

// Enabled reports whether a refresh hook is configured.
func (t *Trigger) Enabled() bool {
	return t.url != ""
}

// RefreshStats posts {project_id, timestamp}. The response body may be empty
// or not JSON at all; only the status code is checked.
func (t *Trigger) RefreshStats(ctx context.Context, projectID string) error {
	if !t.Enabled() {
		return fmt.Errorf("%w: stats refresh url is not configured", apperrors.ErrInvalidInput)
	}
	body, err := json.Marshal(refreshRequest{
		ProjectID: projectID,
		Timestamp: t.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stats refresh: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperrors.RemoteError{Service: "workflow", Status: resp.StatusCode, Body: string(respBody)}
	}
	t.logger.Debugf(providers.TypeSync, "Stats refresh %s triggered for project %s", requestID, projectID)
	return nil
}
