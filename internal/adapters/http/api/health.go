package api

import (
	"net/http"

	"github.com/okian/rrtrack/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const helloMessage = "Hello World"

// HealthHandler handles health check requests.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests by serving the service metrics.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// HelloHandler answers the liveness greeting.
type HelloHandler struct{}

// NewHelloHandler creates a new hello handler.
func NewHelloHandler() *HelloHandler {
	return &HelloHandler{}
}

// HandleHello handles GET / requests.
func (h *HelloHandler) HandleHello(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: helloMessage})
}
