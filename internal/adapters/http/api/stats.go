package api

import (
	"net/http"
	"time"
)

// StatsProvider exposes service counters for GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the service counters plus process uptime.
type StatsHandler struct {
	statsProvider StatsProvider
	started       time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, started: time.Now()}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := make(map[string]interface{})
	for k, v := range h.statsProvider.GetStats() {
		stats[k] = v
	}
	stats["uptimeSeconds"] = int64(time.Since(h.started).Seconds())

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, stats)
}
