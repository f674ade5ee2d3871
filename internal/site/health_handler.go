// health_handler.go -- Health check handler for GET /health.
package site

import (
	"errors"
	"net/http"

	"github.com/MGallo-Code/vitrine/internal/store"
)

// CheckHealth handles GET /health -- pings Redis and reports the mail provider.
// Returns 200 unless Redis is configured and down, then 503.
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	redisStatus := "ok"
	if err := h.Cache.CheckHealth(r.Context()); err != nil {
		if errors.Is(err, store.ErrCacheDisabled) {
			redisStatus = "disabled"
		} else {
			logError(r, "redis health check failed", "error", err)
			redisStatus = "error"
		}
	}

	status := http.StatusOK
	if redisStatus == "error" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, struct {
		Redis string `json:"redis"`
		Mail  string `json:"mail"`
	}{redisStatus, h.MailProvider})
}
