package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/demo-api/internal/httpserver/deps"
)

type healthResponse struct {
	Status string `json:"status"`
}

type rootResponse struct {
	Message string `json:"message"`
}

// Health is the liveness check. It never touches dependencies; see Readyz.
func Health(_ deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
	}
}

func Root(_ deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, rootResponse{Message: "Welcome to the Demo API"})
	}
}
