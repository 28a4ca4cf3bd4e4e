package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/demo-api/internal/logger"
	"github.com/MrSnakeDoc/demo-api/internal/utils"
)

const forbiddenBody = `{"detail":"Forbidden"}` + "\n"

// AllowOnlyCIDRS lets through only clients whose IP matches one of the
// allowed IPs/CIDRs. An empty list disables filtering.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}
	if log == nil {
		log = logger.NewNop()
	}

	log.Debug("CIDR gate enabled",
		logger.Int("rules", len(allowed)),
		logger.Bool("trust_proxy", trustProxy))

	denyLog := &rate.Sometimes{First: 5, Interval: 10 * time.Second}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				denyLog.Do(func() {
					log.Warn("client outside allowed CIDRs",
						logger.String("client", ip),
						logger.String("method", r.Method),
						logger.String("path", r.URL.Path),
						logger.String("request_id", middleware.GetReqID(r.Context())))
				})
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(forbiddenBody))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
