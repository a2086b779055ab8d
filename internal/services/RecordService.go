package services

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"leadsync/internal/apperrors"
	"leadsync/internal/models"
	"leadsync/internal/records"
	"leadsync/internal/sheets"
	"strings"
	"time"
)

type RecordServiceInterface interface {
	ListLeads(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) ([]models.Lead, error)
	CreateLead(ctx context.Context, lead models.Lead, tokens sheets.AccessTokenProvider) (models.Lead, error)
	UpdateLead(ctx context.Context, leadID string, fields records.Update, tokens sheets.AccessTokenProvider) error
	DeleteLead(ctx context.Context, leadID string, tokens sheets.AccessTokenProvider) error
	ListTemplates(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) ([]models.Template, error)
	CreateTemplate(ctx context.Context, tpl models.Template, tokens sheets.AccessTokenProvider) (models.Template, error)
	UpdateTemplate(ctx context.Context, templateID string, fields records.Update, tokens sheets.AccessTokenProvider) error
}

// RecordService is the manual entry and edit path for leads and templates.
type RecordService struct {
	stores *StoreFactory
	now    func() time.Time
}

func NewRecordService(stores *StoreFactory) RecordServiceInterface {
	return &RecordService{stores: stores, now: time.Now}
}

func (rs *RecordService) ListLeads(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) ([]models.Lead, error) {
	if err := requireProject(projectID); err != nil {
		return nil, err
	}
	return rs.stores.Open(tokens).Leads.FilterByField(ctx, models.LeadProjectID, projectID)
}

// CreateLead appends lead with an empty validation block. A missing id is
// generated.
func (rs *RecordService) CreateLead(ctx context.Context, lead models.Lead, tokens sheets.AccessTokenProvider) (models.Lead, error) {
	if err := requireProject(lead.ProjectID); err != nil {
		return models.Lead{}, err
	}
	if strings.TrimSpace(lead.ID) == "" {
		lead.ID = uuid.NewString()
	}
	lead.Validation = models.LeadValidation{}
	if strings.TrimSpace(lead.ScrapedAt) == "" {
		lead.ScrapedAt = models.FormatTimestamp(rs.now())
	}
	if err := rs.stores.Open(tokens).Leads.Append(ctx, lead); err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

func (rs *RecordService) UpdateLead(ctx context.Context, leadID string, fields records.Update, tokens sheets.AccessTokenProvider) error {
	return rs.stores.Open(tokens).Leads.UpdateByKey(ctx, leadID, fields)
}

func (rs *RecordService) DeleteLead(ctx context.Context, leadID string, tokens sheets.AccessTokenProvider) error {
	return rs.stores.Open(tokens).Leads.DeleteByKey(ctx, leadID)
}

func (rs *RecordService) ListTemplates(ctx context.Context, projectID string, tokens sheets.AccessTokenProvider) ([]models.Template, error) {
	if err := requireProject(projectID); err != nil {
		return nil, err
	}
	return rs.stores.Open(tokens).Templates.FilterByField(ctx, models.TemplateProjectID, projectID)
}

func (rs *RecordService) CreateTemplate(ctx context.Context, tpl models.Template, tokens sheets.AccessTokenProvider) (models.Template, error) {
	if err := requireProject(tpl.ProjectID); err != nil {
		return models.Template{}, err
	}
	if strings.TrimSpace(tpl.ID) == "" {
		tpl.ID = uuid.NewString()
	}
	now := models.FormatTimestamp(rs.now())
	if tpl.CreatedAt == "" {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now
	if err := rs.stores.Open(tokens).Templates.Append(ctx, tpl); err != nil {
		return models.Template{}, err
	}
	return tpl, nil
}

// UpdateTemplate stamps updated_at unless the caller sets it.
func (rs *RecordService) UpdateTemplate(ctx context.Context, templateID string, fields records.Update, tokens sheets.AccessTokenProvider) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty update", apperrors.ErrInvalidInput)
	}
	update := make(records.Update, len(fields)+1)
	for k, v := range fields {
		update[k] = v
	}
	if _, ok := update[models.TemplateUpdatedAt]; !ok {
		update[models.TemplateUpdatedAt] = models.FormatTimestamp(rs.now())
	}
	return rs.stores.Open(tokens).Templates.UpdateByKey(ctx, templateID, update)
}

func requireProject(projectID string) error {
	if strings.TrimSpace(projectID) == "" {
		return fmt.Errorf("%w: project_id is required", apperrors.ErrInvalidInput)
	}
	return nil
}
