package controllers

import (
	"fmt"
	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
	"leadsync/internal/services"
	"net/http"
	"time"
)

type HealthController struct {
	reports   services.ReportServiceInterface
	startTime time.Time
	ready     atomic.Bool
}

type healthResponse struct {
	Status            string  `json:"status"`
	Uptime            string  `json:"uptime"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	JournaledProjects int     `json:"journaled_projects"`
}

// SetReady flips the readiness flag; the app sets it once the journal is
// restored and the listener is up.
func (hc *HealthController) SetReady(ready bool) {
	hc.ready.Store(ready)
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:            "ok",
		Uptime:            formatDuration(uptime),
		UptimeSeconds:     uptime.Seconds(),
		JournaledProjects: len(hc.reports.Projects()),
	}
	status := http.StatusOK
	if !hc.ready.Load() {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
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

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(reports services.ReportServiceInterface) *HealthController {
	return &HealthController{
		reports:   reports,
		startTime: time.Now(),
	}
}
