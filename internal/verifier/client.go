// Package verifier talks to the email verification provider.
package verifier

import (
	"bytes"
	"context"
	"fmt"
	"github.com/goccy/go-json"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
	"io"
	"leadsync/internal/apperrors"
	"leadsync/internal/providers"
	"leadsync/internal/structures"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusProcessing is the provider's "still processing, slow down" answer.
const StatusProcessing = 249

type Options struct {
	BaseURL         string
	APIKey          string
	HTTPClient      *http.Client
	MaxAttempts     int
	RetryDelay      time.Duration
	Pacing          time.Duration
	PollInterval    time.Duration
	PollTimeout     time.Duration
	MaxPollAttempts int
	// Sleep waits between retry attempts; nil means a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

type Client struct {
	baseURL         string
	apiKey          string
	httpClient      *http.Client
	maxAttempts     int
	retryDelay      time.Duration
	pollInterval    time.Duration
	pollTimeout     time.Duration
	maxPollAttempts int
	sleep           func(ctx context.Context, d time.Duration) error
	limiter         *rate.Limiter
	calls           *atomic.Int64
	logger          providers.Logger
	metrics         providers.MetricsProviderInterface
}

func NewClient(opts Options, logger providers.Logger, metrics providers.MetricsProviderInterface) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Minute
	}
	maxPollAttempts := opts.MaxPollAttempts
	if maxPollAttempts <= 0 {
		maxPollAttempts = int(pollTimeout/pollInterval) + 1
	}
	limit := rate.Inf
	if opts.Pacing > 0 {
		limit = rate.Every(opts.Pacing)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Client{
		baseURL:         strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiKey:          opts.APIKey,
		httpClient:      httpClient,
		maxAttempts:     maxAttempts,
		retryDelay:      retryDelay,
		pollInterval:    pollInterval,
		pollTimeout:     pollTimeout,
		maxPollAttempts: maxPollAttempts,
		sleep:           sleep,
		limiter:         rate.NewLimiter(limit, 1),
		calls:           atomic.NewInt64(0),
		logger:          logger,
		metrics:         metrics,
	}
}

func NewClientFromConfig(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *Client {
	v := conf.Validation
	return NewClient(Options{
		BaseURL:         v.BaseURL,
		APIKey:          v.APIKey,
		HTTPClient:      &http.Client{Timeout: v.Timeout},
		MaxAttempts:     v.MaxAttempts,
		RetryDelay:      v.RetryDelay,
		Pacing:          v.Pacing,
		PollInterval:    v.PollInterval,
		PollTimeout:     v.PollTimeout,
		MaxPollAttempts: v.MaxPollAttempts,
	}, logger, metrics)
}

// Calls is the number of HTTP requests sent to the provider so far.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}

// Pace blocks until the next single verification may be sent.
func (c *Client) Pace(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// VerifyOne retries the processing code, 429 and 5xx with linear backoff
// (attempt * retryDelay). Any other non-2xx is terminal.
func (c *Client) VerifyOne(ctx context.Context, email string) (Result, error) {
	query := url.Values{}
	query.Set("email", strings.TrimSpace(email))

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		var out Result
		status, body, err := c.send(ctx, http.MethodGet, "/verify", query, nil)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			lastErr = fmt.Errorf("verify %s: %w", email, err)
		case succeeded(status):
			if err := json.Unmarshal(body, &out); err != nil {
				c.metrics.IncProviderCalls("verify", "error")
				return Result{}, fmt.Errorf("decode verify response: %w", err)
			}
			if out.Email == "" {
				out.Email = email
			}
			c.metrics.IncProviderCalls("verify", "ok")
			return out, nil
		case retryable(status):
			lastErr = &apperrors.RemoteError{Service: "verifier", Status: status, Body: string(body)}
		default:
			c.metrics.IncProviderCalls("verify", "rejected")
			return Result{}, &apperrors.RemoteError{Service: "verifier", Status: status, Body: string(body)}
		}

		if attempt == c.maxAttempts {
			break
		}
		c.metrics.IncProviderCalls("verify", "retry")
		delay := time.Duration(attempt) * c.retryDelay
		c.logger.Debugf(providers.TypeSync, "Verifier attempt %d/%d for %s failed (%s), retrying in %s", attempt, c.maxAttempts, email, lastErr, delay)
		if err := c.sleep(ctx, delay); err != nil {
			return Result{}, err
		}
	}
	c.metrics.IncProviderCalls("verify", "exhausted")
	return Result{}, lastErr
}

// VerifyBatch submits one bulk job. Only the processing code and 429 are
// retried: a 5xx may have accepted the job.
func (c *Client) VerifyBatch(ctx context.Context, emails []string) (BatchHandle, error) {
	payload, err := json.Marshal(map[string][]string{"emails": emails})
	if err != nil {
		return BatchHandle{}, err
	}
	for attempt := 1; ; attempt++ {
		status, body, err := c.send(ctx, http.MethodPost, "/batch", nil, payload)
		if err != nil {
			c.metrics.IncProviderCalls("batch_submit", "error")
			return BatchHandle{}, fmt.Errorf("submit batch: %w", err)
		}
		if succeeded(status) {
			var handle BatchHandle
			if err := json.Unmarshal(body, &handle); err != nil {
				return BatchHandle{}, fmt.Errorf("decode batch response: %w", err)
			}
			if handle.ID == "" {
				return BatchHandle{}, &apperrors.RemoteError{Service: "verifier", Status: status, Body: "batch response without id"}
			}
			handle.Emails = append([]string(nil), emails...)
			c.metrics.IncProviderCalls("batch_submit", "ok")
			return handle, nil
		}
		remote := &apperrors.RemoteError{Service: "verifier", Status: status, Body: string(body)}
		if (status != StatusProcessing && status != http.StatusTooManyRequests) || attempt >= c.maxAttempts {
			c.metrics.IncProviderCalls("batch_submit", "rejected")
			return BatchHandle{}, remote
		}
		if err := c.sleep(ctx, time.Duration(attempt)*c.retryDelay); err != nil {
			return BatchHandle{}, err
		}
	}
}

// PollBatch polls every pollInterval until the job completes or fails. It
// gives up after maxPollAttempts polls or pollTimeout, whichever comes first,
// with a terminal RemoteError.
func (c *Client) PollBatch(ctx context.Context, handle BatchHandle) (BatchResult, error) {
	pollCtx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()

	path := "/batch/" + url.PathEscape(handle.ID)
	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		status, body, err := c.send(pollCtx, http.MethodGet, path, nil, nil)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return BatchResult{}, ctx.Err()
			}
			if pollCtx.Err() != nil {
				return BatchResult{}, c.pollExpired(handle, attempt)
			}
			c.logger.Warnf(providers.TypeSync, "Polling batch %s: %s", handle.ID, err)
		case succeeded(status):
			var out BatchResult
			if err := json.Unmarshal(body, &out); err != nil {
				return BatchResult{}, fmt.Errorf("decode batch status: %w", err)
			}
			switch strings.ToLower(out.Status) {
			case BatchCompleted:
				c.metrics.IncProviderCalls("batch_poll", "ok")
				return out, nil
			case BatchFailed:
				c.metrics.IncProviderCalls("batch_poll", "failed")
				return BatchResult{}, &apperrors.RemoteError{Service: "verifier", Status: status, Body: fmt.Sprintf("batch %s failed: %s", handle.ID, body)}
			}
		case retryable(status):
			c.logger.Debugf(providers.TypeSync, "Polling batch %s: status=%d", handle.ID, status)
		default:
			c.metrics.IncProviderCalls("batch_poll", "rejected")
			return BatchResult{}, &apperrors.RemoteError{Service: "verifier", Status: status, Body: string(body)}
		}

		if attempt == c.maxPollAttempts {
			break
		}
		if err := sleepContext(pollCtx, c.pollInterval); err != nil {
			if ctx.Err() != nil {
				return BatchResult{}, ctx.Err()
			}
			return BatchResult{}, c.pollExpired(handle, attempt)
		}
	}
	return BatchResult{}, c.pollExpired(handle, c.maxPollAttempts)
}

func (c *Client) pollExpired(handle BatchHandle, polls int) error {
	c.metrics.IncProviderCalls("batch_poll", "expired")
	return &apperrors.RemoteError{
		Service: "verifier",
		Status:  http.StatusGatewayTimeout,
		Body:    fmt.Sprintf("batch %s not complete after %d polls (limit %s)", handle.ID, polls, c.pollTimeout),
	}
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) (int, []byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.calls.Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// succeeded excludes the processing code, which sits inside the 2xx range.
func succeeded(status int) bool {
	return status >= 200 && status <= 299 && status != StatusProcessing
}

func retryable(status int) bool {
	return status == StatusProcessing || status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
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
