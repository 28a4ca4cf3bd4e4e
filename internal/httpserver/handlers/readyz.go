package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/demo-api/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demo-api/internal/logger"
	"github.com/MrSnakeDoc/demo-api/internal/ratelimit"
)

const readyzPingTimeout = 2 * time.Second

type componentStatus struct {
	OK       bool   `json:"ok"`
	Required bool   `json:"required"`
	Driver   string `json:"driver,omitempty"`
	Clients  *int   `json:"clients,omitempty"`
	Error    string `json:"error,omitempty"`

	Totals        *ratelimit.Counts `json:"totals,omitempty"`
	CurrentMinute *ratelimit.Counts `json:"current_minute,omitempty"`
}

type readyzResponse struct {
	Ready         bool                       `json:"ready"`
	Mode          string                     `json:"mode"`
	UptimeSeconds float64                    `json:"uptime_seconds"`
	Version       string                     `json:"version,omitempty"`
	Commit        string                     `json:"commit,omitempty"`
	BuildDate     string                     `json:"build_date,omitempty"`
	GoVersion     string                     `json:"go_version,omitempty"`
	Components    map[string]componentStatus `json:"components"`
}

// Readyz reports whether the service can serve traffic. The database is
// required; Redis only degrades the service when it is down.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"database": checkPinger(r.Context(), d, "database", d.DB, true),
		}
		if db := components["database"]; d.DBDriver != "" {
			db.Driver = d.DBDriver
			components["database"] = db
		}
		if d.Redis != nil {
			components["redis"] = checkPinger(r.Context(), d, "redis", d.Redis, false)
		}
		if d.Limiter != nil {
			n := d.Limiter.Clients()
			rl := componentStatus{OK: true, Clients: &n}
			if d.Stats != nil {
				rl.Totals, rl.CurrentMinute = decisionStats(r.Context(), d)
			}
			components["rate_limiter"] = rl
		}

		resp := readyzResponse{
			Mode:          determineMode(components),
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			Components:    components,
		}
		resp.Ready = resp.Mode != "unavailable"

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, status, resp)
	}
}

// determineMode is "unavailable" when a required component is down,
// "degraded" when an optional one is, and "ok" otherwise.
func determineMode(components map[string]componentStatus) string {
	mode := "ok"
	for _, c := range components {
		if c.OK {
			continue
		}
		if c.Required {
			return "unavailable"
		}
		mode = "degraded"
	}
	return mode
}

func checkPinger(ctx context.Context, d deps.Deps, name string, p deps.Pinger, required bool) componentStatus {
	if p == nil {
		return componentStatus{OK: false, Required: required, Error: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, readyzPingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		d.Logger.Warn("readiness check failed", logger.String("component", name), logger.Error(err))
		return componentStatus{OK: false, Required: required, Error: "unreachable"}
	}
	return componentStatus{OK: true, Required: required}
}

// decisionStats reads the aggregated counters. Stats are informational: a
// failing read is logged and omitted, and never affects readiness.
func decisionStats(ctx context.Context, d deps.Deps) (totals, minute *ratelimit.Counts) {
	ctx, cancel := context.WithTimeout(ctx, readyzPingTimeout)
	defer cancel()

	if c, err := d.Stats.DecisionTotals(ctx); err != nil {
		d.Logger.Warn("failed to read rate limit totals", logger.Error(err))
	} else {
		totals = &c
	}
	if c, err := d.Stats.DecisionsAt(ctx, d.Now()); err != nil {
		d.Logger.Warn("failed to read rate limit minute stats", logger.Error(err))
	} else {
		minute = &c
	}
	return totals, minute
}
