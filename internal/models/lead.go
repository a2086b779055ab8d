package models

import (
	"leadsync/internal/records"
	"strconv"
	"strings"
)

const TableLeads = "leads"

// Lead field names, in default column order.
const (
	LeadID               = "lead_id"
	LeadProjectID        = "project_id"
	LeadName             = "name"
	LeadEmail            = "email"
	LeadCompany          = "company"
	LeadPosition         = "position"
	LeadPhone            = "phone"
	LeadWebsite          = "website"
	LeadAddress          = "address"
	LeadSource           = "source"
	LeadStatus           = "status"
	LeadScrapedAt        = "scraped_at"
	LeadError            = "error"
	LeadValidationStatus = "validation_status"
	LeadValidationScore  = "validation_score"
	LeadValidationReason = "validation_reason"
	LeadIsFreeEmail      = "is_free_email"
	LeadIsRoleAccount    = "is_role_account"
	LeadIsDisposable     = "is_disposable"
	LeadIsAcceptAll      = "is_accept_all"
	LeadValidatedAt      = "validated_at"
)

// Verification states stored in validation_status.
const (
	StatusDeliverable   = "deliverable"
	StatusUndeliverable = "undeliverable"
	StatusRisky         = "risky"
	StatusUnknown       = "unknown"
)

func LeadSchema() *records.Schema {
	return records.NewSchema(TableLeads, 1,
		records.Column{Field: LeadID, Required: true},
		records.Column{Field: LeadProjectID, Required: true},
		records.Column{Field: LeadName},
		records.Column{Field: LeadEmail},
		records.Column{Field: LeadCompany},
		records.Column{Field: LeadPosition},
		records.Column{Field: LeadPhone},
		records.Column{Field: LeadWebsite},
		records.Column{Field: LeadAddress},
		records.Column{Field: LeadSource},
		records.Column{Field: LeadStatus},
		records.Column{Field: LeadScrapedAt},
		records.Column{Field: LeadError},
		records.Column{Field: LeadValidationStatus},
		records.Column{Field: LeadValidationScore},
		records.Column{Field: LeadValidationReason},
		records.Column{Field: LeadIsFreeEmail},
		records.Column{Field: LeadIsRoleAccount},
		records.Column{Field: LeadIsDisposable},
		records.Column{Field: LeadIsAcceptAll},
		records.Column{Field: LeadValidatedAt},
	)
}

// LeadValidation is the block written once by the validation pipeline.
type LeadValidation struct {
	Status        string `json:"status"`
	Score         int    `json:"score"`
	Reason        string `json:"reason"`
	IsFreeEmail   bool   `json:"is_free_email"`
	IsRoleAccount bool   `json:"is_role_account"`
	IsDisposable  bool   `json:"is_disposable"`
	IsAcceptAll   bool   `json:"is_accept_all"`
	ValidatedAt   string `json:"validated_at"`
}

// Update returns the validation columns only, for a merge-preserve write.
func (v LeadValidation) Update() records.Update {
	return records.Update{
		LeadValidationStatus: v.Status,
		LeadValidationScore:  strconv.Itoa(v.Score),
		LeadValidationReason: v.Reason,
		LeadIsFreeEmail:      FormatBool(v.IsFreeEmail),
		LeadIsRoleAccount:    FormatBool(v.IsRoleAccount),
		LeadIsDisposable:     FormatBool(v.IsDisposable),
		LeadIsAcceptAll:      FormatBool(v.IsAcceptAll),
		LeadValidatedAt:      v.ValidatedAt,
	}
}

type Lead struct {
	ID         string         `json:"lead_id"`
	ProjectID  string         `json:"project_id"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Company    string         `json:"company"`
	Position   string         `json:"position"`
	Phone      string         `json:"phone"`
	Website    string         `json:"website"`
	Address    string         `json:"address"`
	Source     string         `json:"source"`
	Status     string         `json:"status"`
	ScrapedAt  string         `json:"scraped_at"`
	Error      string         `json:"error"`
	Validation LeadValidation `json:"validation"`
}

// Validated reports whether the validation block has been populated.
func (l Lead) Validated() bool {
	return strings.TrimSpace(l.Validation.Status) != ""
}

// NormalizedEmail is the trimmed, lower-cased address.
func (l Lead) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(l.Email))
}

type LeadCodec struct{}

func (LeadCodec) Encode(l Lead) map[string]string {
	values := map[string]string{
		LeadID:        l.ID,
		LeadProjectID: l.ProjectID,
		LeadName:      l.Name,
		LeadEmail:     l.Email,
		LeadCompany:   l.Company,
		LeadPosition:  l.Position,
		LeadPhone:     l.Phone,
		LeadWebsite:   l.Website,
		LeadAddress:   l.Address,
		LeadSource:    l.Source,
		LeadStatus:    l.Status,
		LeadScrapedAt: l.ScrapedAt,
		LeadError:     l.Error,
	}
	// an empty validation block stays empty rather than "0"/"FALSE"
	if l.Validated() {
		for f, v := range l.Validation.Update() {
			values[f] = v
		}
	}
	return values
}

func (LeadCodec) Decode(values map[string]string) Lead {
	score, _ := strconv.Atoi(strings.TrimSpace(values[LeadValidationScore]))
	return Lead{
		ID:        strings.TrimSpace(values[LeadID]),
		ProjectID: strings.TrimSpace(values[LeadProjectID]),
		Name:      values[LeadName],
		Email:     strings.TrimSpace(values[LeadEmail]),
		Company:   values[LeadCompany],
		Position:  values[LeadPosition],
		Phone:     values[LeadPhone],
		Website:   values[LeadWebsite],
		Address:   values[LeadAddress],
		Source:    values[LeadSource],
		Status:    values[LeadStatus],
		ScrapedAt: values[LeadScrapedAt],
		Error:     values[LeadError],
		Validation: LeadValidation{
			Status:        strings.ToLower(strings.TrimSpace(values[LeadValidationStatus])),
			Score:         score,
			Reason:        values[LeadValidationReason],
			IsFreeEmail:   ParseBool(values[LeadIsFreeEmail]),
			IsRoleAccount: ParseBool(values[LeadIsRoleAccount]),
			IsDisposable:  ParseBool(values[LeadIsDisposable]),
			IsAcceptAll:   ParseBool(values[LeadIsAcceptAll]),
			ValidatedAt:   values[LeadValidatedAt],
		},
	}
}
