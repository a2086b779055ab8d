package services

import (
	"fmt"
	"leadsync/internal/models"
	"leadsync/internal/providers"
	"leadsync/internal/records"
	"leadsync/internal/sheets"
	"leadsync/internal/structures"
	"net/http"
)

// TableFactory binds a remote table client to one caller's credentials.
type TableFactory func(tokens sheets.AccessTokenProvider) records.TableAPI

// Stores are the record stores of one caller.
type Stores struct {
	Leads     *records.Store[models.Lead]
	Templates *records.Store[models.Template]
	Stats     *records.Store[models.CampaignStats]
}

// StoreFactory opens record stores per request; nothing is shared between
// callers except the column layouts.
type StoreFactory struct {
	leads     *records.Schema
	templates *records.Schema
	stats     *records.Schema
	newTable  TableFactory
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewStoreFactory(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) (*StoreFactory, error) {
	httpClient := &http.Client{Timeout: conf.Sheets.Timeout}
	newTable := func(tokens sheets.AccessTokenProvider) records.TableAPI {
		return sheets.NewClient(sheets.Options{
			BaseURL:       conf.Sheets.BaseURL,
			SpreadsheetID: conf.Sheets.SpreadsheetID,
			TokenProvider: tokens,
			HTTPClient:    httpClient,
			MaxRetries:    conf.Sheets.MaxRetries,
		})
	}
	return NewStoreFactoryWithTable(conf, newTable, logger, metrics)
}

func NewStoreFactoryWithTable(conf *structures.Config, newTable TableFactory, logger providers.Logger, metrics providers.MetricsProviderInterface) (*StoreFactory, error) {
	leads, err := layout(conf, models.LeadSchema())
	if err != nil {
		return nil, err
	}
	templates, err := layout(conf, models.TemplateSchema())
	if err != nil {
		return nil, err
	}
	stats, err := layout(conf, models.CampaignStatsSchema())
	if err != nil {
		return nil, err
	}
	return &StoreFactory{
		leads:     leads,
		templates: templates,
		stats:     stats,
		newTable:  newTable,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

func layout(conf *structures.Config, schema *records.Schema) (*records.Schema, error) {
	table, ok := conf.Sheets.Tables[schema.Name()]
	if !ok {
		return schema, nil
	}
	out, err := schema.WithLayout(table.Sheet, table.Columns)
	if err != nil {
		return nil, fmt.Errorf("sheets.tables.%s: %w", schema.Name(), err)
	}
	return out, nil
}

func (f *StoreFactory) Open(tokens sheets.AccessTokenProvider) *Stores {
	table := f.newTable(tokens)
	return &Stores{
		Leads:     records.NewStore[models.Lead](table, f.leads, models.LeadCodec{}, f.logger, f.metrics),
		Templates: records.NewStore[models.Template](table, f.templates, models.TemplateCodec{}, f.logger, f.metrics),
		Stats:     records.NewStore[models.CampaignStats](table, f.stats, models.CampaignStatsCodec{}, f.logger, f.metrics),
	}
}
