package controllers

import (
	"annolist/internal/services"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

type HealthController struct {
	service   services.AnnotationServiceInterface
	startTime time.Time
	now       func() time.Time
}

type healthResponse struct {
	Status        string   `json:"status"`
	Uptime        string   `json:"uptime"`
	UptimeSeconds float64  `json:"uptime_seconds"`
	Panels        int      `json:"panels"`
	Datasources   []string `json:"datasources"`
	StalePanels   []string `json:"stale_panels,omitempty"`
}

// Health answers 200 while the daemon serves requests. Panels whose last
// refresh could not reach their backend turn the status to degraded.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := hc.now().Sub(hc.startTime)
	resp := healthResponse{
		Status:        statusOK,
		Uptime:        uptime.Truncate(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
		Panels:        hc.service.PanelCount(),
		Datasources:   hc.service.Datasources(),
		StalePanels:   hc.service.StalePanels(),
	}
	if resp.Datasources == nil {
		resp.Datasources = []string{}
	}
	if len(resp.StalePanels) > 0 {
		resp.Status = statusDegraded
	}

	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func NewHealthController(service services.AnnotationServiceInterface) *HealthController {
	return &HealthController{
		service:   service,
		startTime: time.Now(),
		now:       time.Now,
	}
}
