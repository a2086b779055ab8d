package models

import (
	"leadsync/internal/records"
	"strings"
)

const TableTemplates = "templates"

const (
	TemplateID            = "template_id"
	TemplateProjectID     = "project_id"
	TemplateSubject       = "subject"
	TemplateBody          = "body"
	TemplateEditedByHuman = "edited_by_human"
	TemplateFinalVersion  = "final_version"
	TemplateAIGenerated   = "ai_generated"
	TemplateAIModel       = "ai_model"
	TemplateCreatedAt     = "created_at"
	TemplateUpdatedAt     = "updated_at"
)

func TemplateSchema() *records.Schema {
	return records.NewSchema(TableTemplates, 1,
		records.Column{Field: TemplateID, Required: true},
		records.Column{Field: TemplateProjectID, Required: true},
		records.Column{Field: TemplateSubject, Required: true},
		records.Column{Field: TemplateBody},
		records.Column{Field: TemplateEditedByHuman},
		records.Column{Field: TemplateFinalVersion},
		records.Column{Field: TemplateAIGenerated},
		records.Column{Field: TemplateAIModel},
		records.Column{Field: TemplateCreatedAt},
		records.Column{Field: TemplateUpdatedAt},
	)
}

type Template struct {
	ID            string `json:"template_id"`
	ProjectID     string `json:"project_id"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	EditedByHuman bool   `json:"edited_by_human"`
	FinalVersion  string `json:"final_version"`
	AIGenerated   bool   `json:"ai_generated"`
	AIModel       string `json:"ai_model"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type TemplateCodec struct{}

func (TemplateCodec) Encode(t Template) map[string]string {
	return map[string]string{
		TemplateID:            t.ID,
		TemplateProjectID:     t.ProjectID,
		TemplateSubject:       t.Subject,
		TemplateBody:          t.Body,
		TemplateEditedByHuman: FormatBool(t.EditedByHuman),
		TemplateFinalVersion:  t.FinalVersion,
		TemplateAIGenerated:   FormatBool(t.AIGenerated),
		TemplateAIModel:       t.AIModel,
		TemplateCreatedAt:     t.CreatedAt,
		TemplateUpdatedAt:     t.UpdatedAt,
	}
}

func (TemplateCodec) Decode(values map[string]string) Template {
	return Template{
		ID:            strings.TrimSpace(values[TemplateID]),
		ProjectID:     strings.TrimSpace(values[TemplateProjectID]),
		Subject:       values[TemplateSubject],
		Body:          values[TemplateBody],
		EditedByHuman: ParseBool(values[TemplateEditedByHuman]),
		FinalVersion:  values[TemplateFinalVersion],
		AIGenerated:   ParseBool(values[TemplateAIGenerated]),
		AIModel:       values[TemplateAIModel],
		CreatedAt:     values[TemplateCreatedAt],
		UpdatedAt:     values[TemplateUpdatedAt],
	}
}
