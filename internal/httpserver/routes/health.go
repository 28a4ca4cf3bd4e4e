package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/demo-api/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver/handlers"
)

func init() { Register("health", registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/health", handlers.Health(d))
	r.Get("/", handlers.Root(d))
}
