package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/demo-api/internal/domain"
	"github.com/MrSnakeDoc/demo-api/internal/logger"
	"github.com/MrSnakeDoc/demo-api/internal/metrics"
	"github.com/MrSnakeDoc/demo-api/internal/ratelimit"
)

// ItemService is what the item handlers need from the domain layer.
type ItemService interface {
	ListItems(ctx context.Context, p domain.ListParams) ([]domain.Item, error)
	CreateItem(ctx context.Context, in domain.NewItem) (*domain.Item, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
}

// Pinger is a dependency whose liveness /readyz reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Items ItemService

	Limiter    *ratelimit.Limiter    // nil => rate limiting disabled
	Recorders  []ratelimit.Recorder  // decision sinks (metrics, redis stats)
	TrustProxy bool                  // resolve client IPs from proxy headers
	Stats      ratelimit.StatsReader // nil => no aggregated decision stats

	CORSOrigins    []string
	RequestTimeout time.Duration

	Metrics      *metrics.Metrics // nil => /metrics disabled
	MetricsCIDRS []string         // IPs allowed to scrape /metrics

	DB       Pinger
	DBDriver string
	Redis    Pinger // nil => redis disabled
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
