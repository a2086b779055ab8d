package controllers

import (
	"leadsync/internal/models"
	"leadsync/internal/records"
	"net/http"
)

type leadCreateRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	Phone     string `json:"phone"`
	Website   string `json:"website"`
	Address   string `json:"address"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	ScrapedAt string `json:"scraped_at"`
}

func (req leadCreateRequest) lead() models.Lead {
	return models.Lead{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Email:     req.Email,
		Company:   req.Company,
		Position:  req.Position,
		Phone:     req.Phone,
		Website:   req.Website,
		Address:   req.Address,
		Source:    req.Source,
		Status:    req.Status,
		ScrapedAt: req.ScrapedAt,
	}
}

type leadUpdateRequest struct {
	LeadID string            `json:"lead_id" validate:"required"`
	Fields map[string]string `json:"fields" validate:"required"`
}

type leadDeleteRequest struct {
	LeadID string `json:"lead_id" validate:"required"`
}

type templateCreateRequest struct {
	ProjectID     string `json:"project_id" validate:"required"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	EditedByHuman bool   `json:"edited_by_human"`
	FinalVersion  string `json:"final_version"`
	AIGenerated   bool   `json:"ai_generated"`
	AIModel       string `json:"ai_model"`
}

func (req templateCreateRequest) template() models.Template {
	return models.Template{
		ProjectID:     req.ProjectID,
		Subject:       req.Subject,
		Body:          req.Body,
		EditedByHuman: req.EditedByHuman,
		FinalVersion:  req.FinalVersion,
		AIGenerated:   req.AIGenerated,
		AIModel:       req.AIModel,
	}
}

type templateUpdateRequest struct {
	TemplateID string            `json:"template_id" validate:"required"`
	Fields     map[string]string `json:"fields" validate:"required"`
}

type updatedResponse struct {
	ID string `json:"id"`
}

func (ac *ApiController) ListLeads(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectParam(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}
	store, err := ac.credentials(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}

	leads, err := ac.records.ListLeads(r.Context(), projectID, store.AccessToken)
	if err != nil {
		ac.writeError(w, r, err, store)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	ac.ok(w, http.StatusOK, leads, store)
}

func (ac *ApiController) CreateLead(w http.ResponseWriter, r *http.Request) {
	var payload leadCreateRequest
	if err := decodeBody(w, r, &payload); err != nil {
		ac.writeError(w, r, err, nil)
		return
	}
	store, err := ac.credentials(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}

	lead, err := ac.records.CreateLead(r.Context(), payload.lead(), store.AccessToken)
	if err != nil {
		ac.writeError(w, r, err, store)
		return
	}
	ac.ok(w, http.StatusCreated, lead, store)
}

func (ac *ApiController) UpdateLead(w http.ResponseWriter, r *http.Request) {
	var payload leadUpdateRequest
	if err := decodeBody(w, r, &payload); err != nil {
		ac.writeError(w, r, err, nil)
		return
	}
	store, err := ac.credentials(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}

	if err := ac.records.UpdateLead(r.Context(), payload.LeadID, records.Update(payload.Fields), store.AccessToken); err != nil {
		ac.writeError(w, r, err, store)
		return
	}
	ac.ok(w, http.StatusOK, updatedResponse{ID: payload.LeadID}, store)
}

func (ac *ApiController) DeleteLead(w http.ResponseWriter, r *http.Request) {
	var payload leadDeleteRequest
	if err := decodeBody(w, r, &payload); err != nil {
		ac.writeError(w, r, err, nil)
		return
	}
	store, err := ac.credentials(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}

	if err := ac.records.DeleteLead(r.Context(), payload.LeadID, store.AccessToken); err != nil {
		ac.writeError(w, r, err, store)
		return
	}
	ac.ok(w, http.StatusOK, updatedResponse{ID: payload.LeadID}, store)
}

func (ac *ApiController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectParam(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}
	store, err := ac.credentials(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}

	templates, err := ac.records.ListTemplates(r.Context(), projectID, store.AccessToken)
	if err != nil {
		ac.writeError(w, r, err, store)
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	ac.ok(w, http.StatusOK, templates, store)
}

func (ac *ApiController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var payload templateCreateRequest
	if err := decodeBody(w, r, &payload); err != nil {
		ac.writeError(w, r, err, nil)
		return
	}
	store, err := ac.credentials(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}

	tpl, err := ac.records.CreateTemplate(r.Context(), payload.template(), store.AccessToken)
	if err != nil {
		ac.writeError(w, r, err, store)
		return
	}
	ac.ok(w, http.StatusCreated, tpl, store)
}

func (ac *ApiController) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var payload templateUpdateRequest
	if err := decodeBody(w, r, &payload); err != nil {
		ac.writeError(w, r, err, nil)
		return
	}
	store, err := ac.credentials(r)
	if err != nil {
		ac.writeError(w, r, err, nil)
		return
	}

	if err := ac.records.UpdateTemplate(r.Context(), payload.TemplateID, records.Update(payload.Fields), store.AccessToken); err != nil {
		ac.writeError(w, r, err, store)
		return
	}
	ac.ok(w, http.StatusOK, updatedResponse{ID: payload.TemplateID}, store)
}
