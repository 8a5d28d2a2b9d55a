package api

import (
	"net/http"
)

// statsResponse is the JSON response for GET /v1/stats. Journal aggregates
// come from the store; pending and queue_depth are live balancer readings.
type statsResponse struct {
	Total         int            `json:"total"`
	ByStatus      map[string]int `json:"by_status"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
	Pending       int            `json:"pending"`
	QueueDepth    int            `json:"queue_depth"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetRequestStats(r.Context())
	if err != nil {
		s.logger.Error("get request stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		Total:         stats.Total,
		ByStatus:      stats.CountByStatus,
		AvgDurationMS: stats.AvgDurationMS,
		Pending:       s.relay.Pending(),
		QueueDepth:    s.relay.QueueDepth(),
	})
}
