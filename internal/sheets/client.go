// Package sheets implements records.TableAPI on top of the Google Sheets
// values API. Row indexes are zero-based body rows; the header is row 1 of
// the sheet and is never read back or written.
package sheets

import (
	"bytes"
	"context"
	"fmt"
	"github.com/goccy/go-json"
	"io"
	"leadsync/internal/apperrors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

type AccessTokenProvider func(ctx context.Context) (string, error)

type Options struct {
	BaseURL       string
	SpreadsheetID string
	TokenProvider AccessTokenProvider
	HTTPClient    *http.Client
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
}

type Client struct {
	baseURL       string
	spreadsheetID string
	tokenProvider AccessTokenProvider
	httpClient    *http.Client
	maxRetries    int
	baseDelay     time.Duration
	maxDelay      time.Duration

	mu       sync.Mutex
	sheetIDs map[string]int64
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://sheets.googleapis.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	return &Client{
		baseURL:       baseURL,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		tokenProvider: opts.TokenProvider,
		httpClient:    httpClient,
		maxRetries:    maxRetries,
		baseDelay:     baseDelay,
		maxDelay:      maxDelay,
		sheetIDs:      make(map[string]int64),
	}
}

type valueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

type spreadsheetMeta struct {
	Sheets []struct {
		Properties struct {
			SheetID int64  `json:"sheetId"`
			Title   string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

type dimensionRange struct {
	SheetID    int64  `json:"sheetId"`
	Dimension  string `json:"dimension"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

type batchUpdate struct {
	Requests []map[string]any `json:"requests"`
}

// ReadRows returns every body row. Short rows are returned as the API sends
// them; blank rows in the middle of the sheet keep their position.
func (c *Client) ReadRows(ctx context.Context, table string) ([][]string, error) {
	path := c.valuesPath(quoteSheet(table))
	var out valueRange
	if err := c.do(ctx, http.MethodGet, path, nil, nil, true, &out); err != nil {
		return nil, err
	}
	if len(out.Values) <= 1 {
		return [][]string{}, nil
	}
	rows := make([][]string, 0, len(out.Values)-1)
	for _, raw := range out.Values[1:] {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = cellString(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow adds row below the last non-empty row. Appends are not retried:
// a timed-out append may already have landed.
func (c *Client) AppendRow(ctx context.Context, table string, row []string) error {
	query := url.Values{}
	query.Set("valueInputOption", "RAW")
	query.Set("insertDataOption", "INSERT_ROWS")
	path := c.valuesPath(quoteSheet(table)+"!A1") + ":append"
	return c.do(ctx, http.MethodPost, path, query, valueRange{Values: [][]any{toCells(row)}}, false, nil)
}

// WriteRow overwrites the cells of body row rowIndex starting at column A.
// Cells to the right of the written range are left untouched.
func (c *Client) WriteRow(ctx context.Context, table string, rowIndex int, row []string) error {
	if rowIndex < 0 {
		return fmt.Errorf("%w: row index %d", apperrors.ErrInvalidInput, rowIndex)
	}
	cell := fmt.Sprintf("%s!A%d", quoteSheet(table), rowIndex+2)
	query := url.Values{}
	query.Set("valueInputOption", "RAW")
	body := valueRange{Range: cell, MajorDimension: "ROWS", Values: [][]any{toCells(row)}}
	return c.do(ctx, http.MethodPut, c.valuesPath(cell), query, body, true, nil)
}

// DeleteRow removes body row rowIndex; rows below shift up by one.
func (c *Client) DeleteRow(ctx context.Context, table string, rowIndex int) error {
	if rowIndex < 0 {
		return fmt.Errorf("%w: row index %d", apperrors.ErrInvalidInput, rowIndex)
	}
	sheetID, err := c.sheetID(ctx, table)
	if err != nil {
		return err
	}
	req := batchUpdate{Requests: []map[string]any{{
		"deleteDimension": map[string]any{
			"range": dimensionRange{
				SheetID:    sheetID,
				Dimension:  "ROWS",
				StartIndex: rowIndex + 1,
				EndIndex:   rowIndex + 2,
			},
		},
	}}}
	return c.do(ctx, http.MethodPost, c.spreadsheetPath()+":batchUpdate", nil, req, false, nil)
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	id, ok := c.sheetIDs[title]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	query := url.Values{}
	query.Set("fields", "sheets.properties")
	var meta spreadsheetMeta
	if err := c.do(ctx, http.MethodGet, c.spreadsheetPath(), query, nil, true, &meta); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range meta.Sheets {
		c.sheetIDs[s.Properties.Title] = s.Properties.SheetID
	}
	id, ok = c.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q: %w", title, apperrors.ErrNotFound)
	}
	return id, nil
}

func (c *Client) spreadsheetPath() string {
	return "/v4/spreadsheets/" + url.PathEscape(c.spreadsheetID)
}

func (c *Client) valuesPath(a1 string) string {
	return c.spreadsheetPath() + "/values/" + url.PathEscape(a1)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, retry bool, out any) error {
	if c.tokenProvider == nil {
		return fmt.Errorf("sheets token provider is required")
	}
	if c.spreadsheetID == "" {
		return fmt.Errorf("%w: spreadsheet id is required", apperrors.ErrInvalidInput)
	}
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return err
		}
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		// resolved per attempt: a long retry may outlive the access token
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if retry && attempt < c.maxRetries && ctx.Err() == nil {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("sheets %s: %w", method, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode sheets response: %w", err)
			}
			return nil
		}

		if retry && retryable(resp.StatusCode) && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		remote := &apperrors.RemoteError{Service: "sheets", Status: resp.StatusCode, Body: string(respBody)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return apperrors.AuthRequired(remote)
		}
		return remote
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, c.maxDelay)
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	return min(delay, c.maxDelay)
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
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

// quoteSheet renders a sheet title for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(v)
	}
}
