package server

import (
	"net/http"
	"strconv"

	"adspotly/internal/logger"
)

// handleDiagLogs exposes the logger's bounded ring buffer: the last N
// log lines, for quick production diagnosis without shell access.
func (s *Server) handleDiagLogs(w http.ResponseWriter, r *http.Request) {
	n := 100
	if raw := r.URL.Query().Get("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			n = v
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"lines": logger.Ring.Tail(n),
	})
}
