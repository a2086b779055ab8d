package controllers

import (
	"errors"
	"fmt"
	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
	"io"
	"leadsync/internal/apperrors"
	"leadsync/internal/oauth"
	"leadsync/internal/providers"
	"leadsync/internal/services"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxRequestBodySize = 1 << 20 // 1 MB

const (
	headerRefreshToken = "X-Refresh-Token"
	headerExpiresAt    = "X-Token-Expires-At"
)

var errMissingCredentials = errors.New("missing credentials")

type ApiController struct {
	logger     providers.Logger
	tokens     *oauth.Factory
	validation services.ValidationServiceInterface
	stats      services.StatsServiceInterface
	records    services.RecordServiceInterface
	reports    services.ReportServiceInterface
}

func NewApiController(
	logger providers.Logger,
	tokens *oauth.Factory,
	validation services.ValidationServiceInterface,
	stats services.StatsServiceInterface,
	records services.RecordServiceInterface,
	reports services.ReportServiceInterface,
) *ApiController {
	return &ApiController{
		logger:     logger,
		tokens:     tokens,
		validation: validation,
		stats:      stats,
		records:    records,
		reports:    reports,
	}
}

type tokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

type response struct {
	Data   any             `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Kind   string          `json:"kind,omitempty"`
	Tokens *tokensResponse `json:"tokens,omitempty"`
}

type validateRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
}

// credentials builds the per-request token store from the caller's headers.
func (ac *ApiController) credentials(r *http.Request) (*oauth.TokenStore, error) {
	access := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	refresh := strings.TrimSpace(r.Header.Get(headerRefreshToken))
	if access == "" && refresh == "" {
		return nil, apperrors.AuthRequired(errMissingCredentials)
	}

	var expiresAt time.Time
	if raw := strings.TrimSpace(r.Header.Get(headerExpiresAt)); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be unix milliseconds", apperrors.ErrInvalidInput, headerExpiresAt)
		}
		expiresAt = time.UnixMilli(ms)
	}

	return ac.tokens.New(oauth.TokenState{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", apperrors.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err)
	}
	v := validate.Struct(dst)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, v.Errors.One())
	}
	return nil
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindAuthRequired:
		return http.StatusUnauthorized
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindRemote:
		return http.StatusBadGateway
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (ac *ApiController) writeJSON(w http.ResponseWriter, status int, resp response, store *oauth.TokenStore) {
	if store != nil && store.Refreshed() {
		state := store.State()
		resp.Tokens = &tokensResponse{
			AccessToken:  state.AccessToken,
			RefreshToken: state.RefreshToken,
			ExpiresAt:    state.ExpiresAt.UnixMilli(),
		}
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (ac *ApiController) writeError(w http.ResponseWriter, r *http.Request, err error, store *oauth.TokenStore) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)
	logType := providers.GetLogTypeByRequestType(r.Method)
	if status >= http.StatusInternalServerError {
		ac.logger.Errorf(logType, "%s %s failed: %s", r.Method, r.URL.Path, err)
	} else {
		ac.logger.Warnf(logType, "%s %s rejected (%s): %s", r.Method, r.URL.Path, kind, err)
	}
	ac.writeJSON(w, status, response{Error: apperrors.Summary(err), Kind: kind.String()}, store)
}

func (ac *ApiController) ok(w http.ResponseWriter, status int, data any, store *oauth.TokenStore) {
	ac.writeJSON(w, status, response{Data: data}, store)
}

func projectParam(r *http.Request) (string, error) {
	projectID := strings.TrimSpace(r.URL.Query().Get("project_id"))
	if projectID == "" {
		return "", fmt.Errorf("%w: project_id is required", apperrors.ErrInvalidInput)
	}
	return projectID, nil
}

// Validate runs one validation pass for the project in the request body.
func (ac *ApiController) Validate(w http.ResponseWriter, r *http.Request) {
	var payload validateRequest
	if err := decodeBody(w, r, &payload); err != nil {
		ac.writeError(w, r, err, nil)
		return
	}
	store, err := ac.credentials(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}

	report, err := ac.validation.ValidateProject(r.Context(), payload.ProjectID, store.AccessToken)
	if err != nil {
		ac.writeError(w, r, err, store)
		return
	}
	ac.ok(w, http.StatusOK, report, store)
}

func (ac *ApiController) CampaignStats(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectParam(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}
	forceRefresh := false
	if raw := r.URL.Query().Get("force_refresh"); raw != "" {
		forceRefresh, err = strconv.ParseBool(raw)
		if err != nil {
			ac.writeError(w, r, fmt.Errorf("%w: force_refresh must be a boolean", apperrors.ErrInvalidInput), nil)
			return
		}
	}
	store, err := ac.credentials(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}

	stats, err := ac.stats.GetCampaignStats(r.Context(), projectID, store.AccessToken, forceRefresh)
	if err != nil {
		ac.writeError(w, r, err, store)
		return
	}
	ac.ok(w, http.StatusOK, stats, store)
}

type projectsResponse struct {
	Projects []string `json:"projects"`
}

// ListReports serves the journaled reports of one project, or the list of
// journaled projects when project_id is omitted.
func (ac *ApiController) ListReports(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.URL.Query().Get("project_id"))
	if projectID == "" {
		ac.ok(w, http.StatusOK, projectsResponse{Projects: ac.reports.Projects()}, nil)
		return
	}
	ac.ok(w, http.StatusOK, ac.reports.Get(projectID), nil)
}
