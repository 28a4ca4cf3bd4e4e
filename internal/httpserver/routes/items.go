package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demo-api/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver/mw"
)

func init() { Register("items", registerItems) }

// Only the item endpoints are rate limited; health checks and metrics are not.
func registerItems(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(mw.RateLimit(mw.RateLimitConfig{
				Limiter:    d.Limiter,
				TrustProxy: d.TrustProxy,
				Recorders:  d.Recorders,
				Logger:     d.Logger,
			}))
		}
		r.Get("/items", handlers.ListItems(d))
		r.Post("/items", handlers.CreateItem(d))
		r.Get("/items/{item_id}", handlers.GetItem(d))
	})
}
