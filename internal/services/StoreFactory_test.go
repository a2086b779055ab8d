package services

import (
	"context"
	"errors"
	"leadsync/internal/apperrors"
	"leadsync/internal/models"
	"leadsync/internal/structures"
	"leadsync/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreFactory_AppliesConfiguredLayout(t *testing.T) {
	conf := testConfig()
	conf.Sheets.Tables = map[string]structures.TableConfig{
		models.TableLeads: {
			Sheet:   "Leads 2026",
			Columns: map[string]int{models.LeadEmail: 21, models.LeadCompany: 22},
		},
	}
	table := testutil.NewMemoryTable()
	row := leadRow("l1", "P1", "", "")
	row = append(row, "moved@x.com", "Initech")
	table.Seed("Leads 2026", row)

	stores := newTestFactory(t, conf, table).Open(staticTokens)
	leads, err := stores.Leads.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "moved@x.com", leads[0].Email)
	assert.Equal(t, "Initech", leads[0].Company)
	assert.Equal(t, "Leads 2026", stores.Leads.Schema().Sheet())
	assert.Equal(t, models.TableTemplates, stores.Templates.Schema().Sheet())
}

func TestStoreFactory_RejectsCollidingLayout(t *testing.T) {
	conf := testConfig()
	conf.Sheets.Tables = map[string]structures.TableConfig{
		models.TableTemplates: {Columns: map[string]int{models.TemplateBody: 0}},
	}
	_, err := NewStoreFactoryWithTable(conf, nil, &testutil.MockLogger{}, &testutil.MockMetrics{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestStoreFactory_DefaultsToSheetsClient(t *testing.T) {
	conf := testConfig()
	conf.Sheets.SpreadsheetID = "sheet-1"
	factory, err := NewStoreFactory(conf, &testutil.MockLogger{}, &testutil.MockMetrics{})
	require.NoError(t, err)
	assert.NotNil(t, factory.Open(staticTokens).Leads)
}
