package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// MetricsHandler serves the Prometheus exposition format
type MetricsHandler struct {
	exposition http.Handler
}

// NewMetricsHandler wraps the exporter's handler. A nil handler means
// metrics are disabled and the endpoint answers 404.
func NewMetricsHandler(exposition http.Handler) *MetricsHandler {
	return &MetricsHandler{exposition: exposition}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exposition == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{
			"status":  "disabled",
			"message": "metrics exporter is disabled",
		})
		return
	}
	h.exposition.ServeHTTP(w, r)
}
