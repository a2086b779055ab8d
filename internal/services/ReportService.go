package services

import (
	"leadsync/internal/models"
	"leadsync/internal/providers"
	"leadsync/internal/structures"
	"sort"
	"sync"
)

type ReportServiceInterface interface {
	Put(report *models.ValidationReport)
	Get(projectID string) []*models.ValidationReport
	Projects() []string
	GetSnapshot() map[string][]*models.ValidationReport
	PutSnapshot(snapshot map[string][]*models.ValidationReport)
}

// ReportService keeps the most recent validation reports per project,
// newest last.
type ReportService struct {
	mu      sync.RWMutex
	reports map[string][]*models.ValidationReport
	limit   int
	metrics providers.MetricsProviderInterface
}

func NewReportService(conf *structures.Config, metrics providers.MetricsProviderInterface) ReportServiceInterface {
	limit := conf.Persistence.MaxReportsPerProject
	if limit <= 0 {
		limit = 20
	}
	return &ReportService{
		reports: make(map[string][]*models.ValidationReport),
		limit:   limit,
		metrics: metrics,
	}
}

func (rs *ReportService) Put(report *models.ValidationReport) {
	if report == nil || report.ProjectID == "" {
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.reports[report.ProjectID] = rs.trim(append(rs.reports[report.ProjectID], report))
	rs.metrics.SetReportsTotal(rs.countLocked())
}

// Get returns a copy of the project's reports, newest last.
func (rs *ReportService) Get(projectID string) []*models.ValidationReport {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]*models.ValidationReport(nil), rs.reports[projectID]...)
}

func (rs *ReportService) Projects() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]string, 0, len(rs.reports))
	for p := range rs.reports {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (rs *ReportService) GetSnapshot() map[string][]*models.ValidationReport {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make(map[string][]*models.ValidationReport, len(rs.reports))
	for p, list := range rs.reports {
		out[p] = append([]*models.ValidationReport(nil), list...)
	}
	return out
}

// PutSnapshot merges restored reports in front of anything recorded since
// startup, ordered by start time.
func (rs *ReportService) PutSnapshot(snapshot map[string][]*models.ValidationReport) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for p, list := range snapshot {
		merged := make([]*models.ValidationReport, 0, len(list)+len(rs.reports[p]))
		for _, r := range list {
			if r != nil {
				merged = append(merged, r)
			}
		}
		merged = append(merged, rs.reports[p]...)
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].StartedAt.Before(merged[j].StartedAt)
		})
		rs.reports[p] = rs.trim(merged)
	}
	rs.metrics.SetReportsTotal(rs.countLocked())
}

func (rs *ReportService) trim(list []*models.ValidationReport) []*models.ValidationReport {
	if len(list) <= rs.limit {
		return list
	}
	return append([]*models.ValidationReport(nil), list[len(list)-rs.limit:]...)
}

func (rs *ReportService) countLocked() int {
	n := 0
	for _, list := range rs.reports {
		n += len(list)
	}
	return n
}
