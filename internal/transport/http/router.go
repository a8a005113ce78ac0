package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"riskgate/pkg/platform/httputil"
)

// NewRouter wires the attempt endpoints plus operational routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	h.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
