package mw

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/demo-api/internal/logger"
	"github.com/MrSnakeDoc/demo-api/internal/ratelimit"
	"github.com/MrSnakeDoc/demo-api/internal/utils"
)

// RateLimitedMessage is the body of every 429 response.
const RateLimitedMessage = "Too many requests, please try again later"

const recordTimeout = 250 * time.Millisecond

type RateLimitConfig struct {
	Limiter    *ratelimit.Limiter
	TrustProxy bool // resolve IP from proxy headers when true
	Recorders  []ratelimit.Recorder
	Logger     logger.Logger
	Now        func() time.Time // defaults to time.Now; must carry a monotonic reading
}

type rateLimitedBody struct {
	Error string `json:"error"`
}

// RateLimit rejects clients that exceed the limiter's sliding-window cap.
// Allowed responses carry X-RateLimit-Limit/Remaining; rejected ones also
// carry Retry-After and a JSON error body.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	limitStr := strconv.Itoa(cfg.Limiter.Config().MaxRequests)

	// Bursts of rejections would otherwise flood the log.
	rejectLog := &rate.Sometimes{First: 5, Interval: 10 * time.Second}
	recordErrLog := &rate.Sometimes{First: 1, Interval: time.Minute}

	record := func(r *http.Request, ev ratelimit.Event) {
		if len(cfg.Recorders) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), recordTimeout)
		defer cancel()
		for _, rec := range cfg.Recorders {
			if err := rec.Record(ctx, ev); err != nil {
				recordErrLog.Do(func() {
					cfg.Logger.Warn("failed to record rate limit decision", logger.Error(err))
				})
			}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := cfg.Now()
			key := utils.ClientIP(r, cfg.TrustProxy)
			if key == "" {
				key = ratelimit.UnknownClient
			}

			res := cfg.Limiter.Evaluate(key, now)

			w.Header().Set("X-RateLimit-Limit", limitStr)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))

			if !res.Allowed() {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.RetryAfter)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(rateLimitedBody{Error: RateLimitedMessage})

				rejectLog.Do(func() {
					cfg.Logger.Warn("rate limit exceeded",
						logger.String("client", key),
						logger.String("path", r.URL.Path),
						logger.Duration("retry_after", res.RetryAfter))
				})
				record(r, ratelimit.Event{ClientID: key, Route: routeOf(r), Decision: res.Decision, At: now})
				return
			}

			next.ServeHTTP(w, r)
			record(r, ratelimit.Event{ClientID: key, Route: routeOf(r), Decision: res.Decision, At: now})
		})
	}
}

// retryAfterSeconds rounds up, with a floor of one second.
func retryAfterSeconds(d time.Duration) int {
	sec := int(math.Ceil(d.Seconds()))
	if sec < 1 {
		sec = 1
	}
	return sec
}

func routeOf(r *http.Request) string {
	pattern := ""
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		pattern = rctx.RoutePattern()
	}
	if pattern == "" {
		return r.Method
	}
	return r.Method + " " + pattern
}
