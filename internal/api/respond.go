// internal/api/respond.go
package api

import (
	"encoding/json"
	"net/http"

	"travel-planner/internal/common/logger"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context(), logger.NewNoOpLogger()).Warn("encode response failed", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
	}
}

func writeDetail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeJSON(w, r, status, map[string]string{"detail": detail})
}
