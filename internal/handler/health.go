package handler

import (
	"context"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/formgate/formgate/internal/model"
)

// Pinger checks every configured upstream.
type Pinger interface {
	PingAll(ctx context.Context) map[string]error
}

// SystemHandler serves probes and the API description.
type SystemHandler struct {
	upstreams Pinger
	doc       *openapi3.T
}

// NewSystemHandler creates a new SystemHandler. doc is served as-is by
// OpenAPI.
func NewSystemHandler(upstreams Pinger, doc *openapi3.T) *SystemHandler {
	return &SystemHandler{upstreams: upstreams, doc: doc}
}

// Healthz is a liveness probe. Returns 200 if the process is running.
func (h *SystemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe. Returns 200 when every upstream answers a
// ping, or 503 if any does not.
func (h *SystemHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := model.HealthResponse{Status: "ok", Upstream: map[string]string{}}
	status := http.StatusOK

	for name, err := range h.upstreams.PingAll(r.Context()) {
		if err != nil {
			resp.Upstream[name] = "error: " + err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Upstream[name] = "ok"
	}

	if len(resp.Upstream) == 0 {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// OpenAPI serves the OpenAPI document.
// GET /openapi.json
func (h *SystemHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.doc)
}
