package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demo-api/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver/mw"
)

func init() { Register("metrics", registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	if d.Metrics == nil {
		return
	}
	r.With(mw.AllowOnlyCIDRS(d.MetricsCIDRS, d.TrustProxy, d.Logger)).Get("/metrics", d.Metrics.Handler().ServeHTTP)
}
