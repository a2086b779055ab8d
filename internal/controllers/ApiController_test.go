package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"leadsync/internal/apperrors"
	"leadsync/internal/models"
	"leadsync/internal/oauth"
	"leadsync/internal/records"
	"leadsync/internal/services"
	"leadsync/internal/sheets"
	"leadsync/internal/structures"
	"leadsync/internal/testutil"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- local mocks (scoped to controller tests) ---

type mockValidation struct {
	calls  []string
	report *models.ValidationReport
	err    error
}

func (m *mockValidation) ValidateProject(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) (*models.ValidationReport, error) {
	m.calls = append(m.calls, projectID)
	if _, err := tokens(ctx); err != nil {
		return nil, err
	}
	return m.report, m.err
}

type mockStats struct {
	forceRefresh bool
	stats        *models.CampaignStats
	err          error
}

func (m *mockStats) Fetch(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) (*models.CampaignStats, error) {
	return m.GetCampaignStats(ctx, projectID, tokens, false)
}

func (m *mockStats) RefreshThenFetch(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) (*models.CampaignStats, error) {
	return m.GetCampaignStats(ctx, projectID, tokens, true)
}

func (m *mockStats) GetCampaignStats(_ context.Context, _ string, _ sheets.AccessTokenProvider, forceRefresh bool) (*models.CampaignStats, error) {
	m.forceRefresh = forceRefresh
	return m.stats, m.err
}

type mockRecords struct {
	leads      []models.Lead
	created    models.Lead
	updatedID  string
	updated    records.Update
	deletedID  string
	templates  []models.Template
	createdTpl models.Template
	err        error
}

func (m *mockRecords) ListLeads(_ context.Context, _ string, _ sheets.AccessTokenProvider) ([]models.Lead, error) {
	return m.leads, m.err
}

func (m *mockRecords) CreateLead(_ context.Context, lead models.Lead, _ sheets.AccessTokenProvider) (models.Lead, error) {
	lead.ID = "lead-new"
	m.created = lead
	return lead, m.err
}

func (m *mockRecords) UpdateLead(_ context.Context, leadID string, fields records.Update, _ sheets.AccessTokenProvider) error {
	m.updatedID, m.updated = leadID, fields
	return m.err
}

func (m *mockRecords) DeleteLead(_ context.Context, leadID string, _ sheets.AccessTokenProvider) error {
	m.deletedID = leadID
	return m.err
}

func (m *mockRecords) ListTemplates(_ context.Context, _ string, _ sheets.AccessTokenProvider) ([]models.Template, error) {
	return m.templates, m.err
}

func (m *mockRecords) CreateTemplate(_ context.Context, tpl models.Template, _ sheets.AccessTokenProvider) (models.Template, error) {
	tpl.ID = "tpl-new"
	m.createdTpl = tpl
	return tpl, m.err
}

func (m *mockRecords) UpdateTemplate(_ context.Context, templateID string, fields records.Update, _ sheets.AccessTokenProvider) error {
	m.updatedID, m.updated = templateID, fields
	return m.err
}

// --- helpers ---

type fixture struct {
	controller *ApiController
	validation *mockValidation
	stats      *mockStats
	records    *mockRecords
	reports    services.ReportServiceInterface
	logger     *testutil.MockLogger
}

func newFixture(t *testing.T, tokenURL string) *fixture {
	t.Helper()
	conf := &structures.Config{}
	conf.OAuth.TokenURL = tokenURL
	conf.OAuth.ClientID = "client"
	conf.Persistence.MaxReportsPerProject = 5

	f := &fixture{
		validation: &mockValidation{},
		stats:      &mockStats{},
		records:    &mockRecords{},
		reports:    services.NewReportService(conf, &testutil.MockMetrics{}),
		logger:     &testutil.MockLogger{},
	}
	f.controller = NewApiController(f.logger, oauth.NewFactory(conf, f.logger), f.validation, f.stats, f.records, f.reports)
	return f
}

func authorize(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer access-1")
	req.Header.Set(headerRefreshToken, "refresh-1")
	req.Header.Set(headerExpiresAt, strconv.FormatInt(time.Now().Add(time.Hour).UnixMilli(), 10))
	return req
}

type decoded struct {
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Kind   string          `json:"kind"`
	Tokens *tokensResponse `json:"tokens"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) decoded {
	t.Helper()
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var out decoded
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func post(path, body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
}

// --- validate ---

func TestValidate_Success(t *testing.T) {
	f := newFixture(t, "")
	f.validation.report = &models.ValidationReport{RunID: "run-1", ProjectID: "P1", Outcome: models.OutcomeSuccess, Validated: 2, Deliverable: 2}

	rr := httptest.NewRecorder()
	f.controller.Validate(rr, authorize(post("/validate", `{"project_id":"P1"}`)))

	require.Equal(t, http.StatusOK, rr.Code)
	out := decode(t, rr)
	assert.Nil(t, out.Tokens)
	var report models.ValidationReport
	require.NoError(t, json.Unmarshal(out.Data, &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 2, report.Deliverable)
	assert.Equal(t, []string{"P1"}, f.validation.calls)
}

func TestValidate_ErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		summary string
	}{
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "validation already running, please wait"},
		{"auth", apperrors.AuthRequired(errors.New("revoked")), http.StatusUnauthorized, "re-authentication required"},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not found"},
		{"remote", &apperrors.RemoteError{Service: "sheets", Status: 500, Body: "secret upstream detail"}, http.StatusBadGateway, "sheets service returned status 500"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "")
			f.validation.err = tt.err

			rr := httptest.NewRecorder()
			f.controller.Validate(rr, authorize(post("/validate", `{"project_id":"P1"}`)))

			assert.Equal(t, tt.status, rr.Code)
			out := decode(t, rr)
			assert.Equal(t, tt.summary, out.Error)
			assert.NotContains(t, rr.Body.String(), "secret upstream detail")
		})
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	f := newFixture(t, "")

	rr := httptest.NewRecorder()
	f.controller.Validate(rr, post("/validate", `{"project_id":"P1"}`))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "auth_required", decode(t, rr).Kind)
	assert.Empty(t, f.validation.calls)
}

func TestValidate_BadBody(t *testing.T) {
	for name, body := range map[string]string{
		"missing project": `{}`,
		"not json":        `{`,
		"empty":           ``,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, "")
			rr := httptest.NewRecorder()
			f.controller.Validate(rr, authorize(post("/validate", body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "invalid_input", decode(t, rr).Kind)
			assert.Empty(t, f.validation.calls)
		})
	}
}

func TestValidate_BadExpiresAtHeader(t *testing.T) {
	f := newFixture(t, "")
	req := authorize(post("/validate", `{"project_id":"P1"}`))
	req.Header.Set(headerExpiresAt, "tomorrow")

	rr := httptest.NewRecorder()
	f.controller.Validate(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestValidate_ReturnsRefreshedTokens(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","refresh_token":"refresh-2","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	f := newFixture(t, tokenServer.URL)
	f.validation.report = &models.ValidationReport{RunID: "run-1", Outcome: models.OutcomeSuccess}
	req := authorize(post("/validate", `{"project_id":"P1"}`))
	req.Header.Set(headerExpiresAt, strconv.FormatInt(time.Now().Add(-time.Minute).UnixMilli(), 10))

	rr := httptest.NewRecorder()
	f.controller.Validate(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	out := decode(t, rr)
	require.NotNil(t, out.Tokens)
	assert.Equal(t, "fresh", out.Tokens.AccessToken)
	assert.Equal(t, "refresh-2", out.Tokens.RefreshToken)
	assert.Greater(t, out.Tokens.ExpiresAt, time.Now().UnixMilli())
}

// --- campaign stats ---

func TestCampaignStats_ForceRefresh(t *testing.T) {
	f := newFixture(t, "")
	f.stats.stats = &models.CampaignStats{CampaignID: "C1", ProjectID: "P1", Counters: map[string]float64{"emails_sent": 10}}

	rr := httptest.NewRecorder()
	f.controller.CampaignStats(rr, authorize(httptest.NewRequest(http.MethodGet, "/campaign-stats?project_id=P1&force_refresh=true", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, f.stats.forceRefresh)
	var stats models.CampaignStats
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &stats))
	assert.Equal(t, float64(10), stats.Counters["emails_sent"])
}

func TestCampaignStats_BadQuery(t *testing.T) {
	f := newFixture(t, "")
	for _, target := range []string{"/campaign-stats", "/campaign-stats?project_id=P1&force_refresh=maybe"} {
		rr := httptest.NewRecorder()
		f.controller.CampaignStats(rr, authorize(httptest.NewRequest(http.MethodGet, target, nil)))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestCampaignStats_NotFound(t *testing.T) {
	f := newFixture(t, "")
	f.stats.err = apperrors.ErrNotFound

	rr := httptest.NewRecorder()
	f.controller.CampaignStats(rr, authorize(httptest.NewRequest(http.MethodGet, "/campaign-stats?project_id=P9", nil)))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, f.stats.forceRefresh)
	assert.Equal(t, 1, f.logger.Count("warn"))
}

// --- records ---

func TestListLeads_EmptyIsArray(t *testing.T) {
	f := newFixture(t, "")

	rr := httptest.NewRecorder()
	f.controller.ListLeads(rr, authorize(httptest.NewRequest(http.MethodGet, "/leads?project_id=P1", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, string(decode(t, rr).Data))
}

func TestCreateLead(t *testing.T) {
	f := newFixture(t, "")

	rr := httptest.NewRecorder()
	f.controller.CreateLead(rr, authorize(post("/leads/create", `{"project_id":"P1","name":"Ada","email":"ada@example.com"}`)))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "P1", f.records.created.ProjectID)
	assert.Equal(t, "ada@example.com", f.records.created.Email)
	var lead models.Lead
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &lead))
	assert.Equal(t, "lead-new", lead.ID)
}

func TestUpdateLead_PassesFields(t *testing.T) {
	f := newFixture(t, "")

	rr := httptest.NewRecorder()
	f.controller.UpdateLead(rr, authorize(post("/leads/update", `{"lead_id":"L1","fields":{"status":"contacted"}}`)))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "L1", f.records.updatedID)
	assert.Equal(t, records.Update{"status": "contacted"}, f.records.updated)
}

func TestUpdateLead_UnknownFieldIsBadRequest(t *testing.T) {
	f := newFixture(t, "")
	f.records.err = apperrors.ErrInvalidInput

	rr := httptest.NewRecorder()
	f.controller.UpdateLead(rr, authorize(post("/leads/update", `{"lead_id":"L1","fields":{"nope":"x"}}`)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteLead_NotFound(t *testing.T) {
	f := newFixture(t, "")
	f.records.err = apperrors.ErrNotFound

	rr := httptest.NewRecorder()
	f.controller.DeleteLead(rr, authorize(post("/leads/delete", `{"lead_id":"L404"}`)))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "L404", f.records.deletedID)
}

func TestTemplates(t *testing.T) {
	f := newFixture(t, "")
	f.records.templates = []models.Template{{ID: "T1", ProjectID: "P1", Subject: "Hi"}}

	rr := httptest.NewRecorder()
	f.controller.ListTemplates(rr, authorize(httptest.NewRequest(http.MethodGet, "/templates?project_id=P1", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []models.Template
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Hi", list[0].Subject)

	rr = httptest.NewRecorder()
	f.controller.CreateTemplate(rr, authorize(post("/templates/create", `{"project_id":"P1","subject":"New","ai_generated":true}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, f.records.createdTpl.AIGenerated)

	rr = httptest.NewRecorder()
	f.controller.UpdateTemplate(rr, authorize(post("/templates/update", `{"template_id":"T1"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	f.controller.UpdateTemplate(rr, authorize(post("/templates/update", `{"template_id":"T1","fields":{"subject":"Edited"}}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "T1", f.records.updatedID)
}

// --- reports ---

func TestListReports(t *testing.T) {
	f := newFixture(t, "")
	f.reports.Put(&models.ValidationReport{RunID: "r1", ProjectID: "P1", Outcome: models.OutcomeSuccess})

	rr := httptest.NewRecorder()
	f.controller.ListReports(rr, httptest.NewRequest(http.MethodGet, "/validation/reports?project_id=P1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []models.ValidationReport
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].RunID)

	rr = httptest.NewRecorder()
	f.controller.ListReports(rr, httptest.NewRequest(http.MethodGet, "/validation/reports", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"projects":["P1"]}`, string(decode(t, rr).Data))
}
