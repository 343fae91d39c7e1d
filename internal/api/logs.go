package api

import (
	"net/http"

	"application-intake-go/internal/logger"
)

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryIntDefault(r.URL.Query(), "limit", 100)
	if limit < 0 {
		limit = 0
	}
	if limit > 2000 {
		limit = 2000
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logger.Recent(limit)})
}
