package models

import (
	"leadsync/internal/records"
	"strings"
)

const TableCampaignStats = "campaign_stats"

const (
	StatsCampaignID = "campaign_id"
	StatsProjectID  = "project_id"
	StatsCreatedAt  = "created_at"
)

// StatsCounters lists the numeric columns in default order. They are filled
// by the workflow backend; this service only reads them.
var StatsCounters = []string{
	"emails_sent",
	"emails_delivered",
	"emails_opened",
	"emails_clicked",
	"emails_replied",
	"emails_bounced",
	"emails_unsubscribed",
	"emails_spam",
	"leads_total",
	"leads_contacted",
	"leads_interested",
	"meetings_booked",
	"delivery_rate",
	"open_rate",
	"click_rate",
	"reply_rate",
	"bounce_rate",
	"unsubscribe_rate",
	"spam_rate",
	"conversion_rate",
}

func CampaignStatsSchema() *records.Schema {
	columns := []records.Column{
		{Field: StatsCampaignID, Required: true},
		{Field: StatsProjectID, Required: true},
		{Field: StatsCreatedAt},
	}
	for _, f := range StatsCounters {
		columns = append(columns, records.Column{Field: f})
	}
	return records.NewSchema(TableCampaignStats, 1, columns...)
}

type CampaignStats struct {
	CampaignID string             `json:"campaign_id"`
	ProjectID  string             `json:"project_id"`
	CreatedAt  string             `json:"created_at"`
	Counters   map[string]float64 `json:"counters"`
}

type CampaignStatsCodec struct{}

func (CampaignStatsCodec) Encode(s CampaignStats) map[string]string {
	values := map[string]string{
		StatsCampaignID: s.CampaignID,
		StatsProjectID:  s.ProjectID,
		StatsCreatedAt:  s.CreatedAt,
	}
	for _, f := range StatsCounters {
		if v, ok := s.Counters[f]; ok {
			values[f] = FormatNumber(v)
		}
	}
	return values
}

func (CampaignStatsCodec) Decode(values map[string]string) CampaignStats {
	counters := make(map[string]float64, len(StatsCounters))
	for _, f := range StatsCounters {
		counters[f] = ParseNumber(values[f])
	}
	return CampaignStats{
		CampaignID: strings.TrimSpace(values[StatsCampaignID]),
		ProjectID:  strings.TrimSpace(values[StatsProjectID]),
		CreatedAt:  strings.TrimSpace(values[StatsCreatedAt]),
		Counters:   counters,
	}
}
