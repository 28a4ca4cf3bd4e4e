package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/demo-api/internal/config"
	"github.com/MrSnakeDoc/demo-api/internal/domain"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver"
	"github.com/MrSnakeDoc/demo-api/internal/httpserver/deps"
	"github.com/MrSnakeDoc/demo-api/internal/logger"
	"github.com/MrSnakeDoc/demo-api/internal/metrics"
	"github.com/MrSnakeDoc/demo-api/internal/ratelimit"
	"github.com/MrSnakeDoc/demo-api/internal/redis"
	"github.com/MrSnakeDoc/demo-api/internal/scheduler"
	"github.com/MrSnakeDoc/demo-api/internal/seed"
	redisstore "github.com/MrSnakeDoc/demo-api/internal/store/redis"
	sqlstore "github.com/MrSnakeDoc/demo-api/internal/store/sql"
	"github.com/MrSnakeDoc/demo-api/internal/utils"
	"github.com/MrSnakeDoc/demo-api/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	store       *sqlstore.Store
	redisClient *goredis.Client
	statsSink   *ratelimit.AsyncRecorder
	sweeper     *scheduler.WindowSweeper
}

// New wires every component. Nothing is started yet; partial resources
// are released when a later step fails.
func New(ctx context.Context) (_ *App, err error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	a := &App{cfg: cfg, logger: loggerClient}
	defer func() {
		if err != nil {
			a.closeStores()
		}
	}()

	// --- Database (required)
	a.store, err = sqlstore.Open(ctx, sqlstore.Options{
		URL:    cfg.DatabaseURL,
		Driver: cfg.DBDriver,
	}, loggerClient)
	if err != nil {
		return nil, err
	}

	if cfg.SeedOnStart {
		if _, err = seed.NewSeeder(a.store, seed.NewLoader(cfg.SeedFile), loggerClient).Run(ctx); err != nil {
			return nil, err
		}
	}

	var (
		recorders []ratelimit.Recorder
		svcOpts   []domain.ItemServiceOption
		redisPing deps.Pinger
		stats     ratelimit.StatsReader
	)

	// --- Metrics (optional)
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		recorders = append(recorders, m)
		svcOpts = append(svcOpts, domain.WithCreatedHook(func(*domain.Item) { m.ItemCreated() }))
		loggerClient.Info("metrics enabled", logger.Int("cidrs", len(cfg.MetricsCIDRS)))
	}

	// --- Redis (optional): item cache + rate limit statistics
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		a.redisClient, err = redis.Connect(ctx, redis.Options{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		rs := redisstore.NewStore(a.redisClient, redisstore.WithItemTTL(cfg.ItemCacheTTL))
		svcOpts = append(svcOpts, domain.WithCache(rs))
		// Redis round trips stay off the request path.
		statsErrLog := &rate.Sometimes{First: 1, Interval: time.Minute}
		a.statsSink = ratelimit.NewAsyncRecorder(rs, ratelimit.DefaultAsyncBuffer, ratelimit.DefaultAsyncTimeout, func(err error) {
			statsErrLog.Do(func() { loggerClient.Warn("failed to record rate limit stats", logger.Error(err)) })
		})
		recorders = append(recorders, a.statsSink)
		redisPing = rs
		stats = rs
		loggerClient.Info("Redis initialized successfully")
	}

	// --- Rate limiter
	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter, err = ratelimit.New(ratelimit.Config{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
		})
		if err != nil {
			return nil, err
		}
		a.sweeper = scheduler.NewWindowSweeper(limiter, loggerClient, cfg.RateLimitSweepInterval)
		loggerClient.Info("rate limiting enabled",
			logger.Int("max_requests", cfg.RateLimitMaxRequests),
			logger.Duration("window", cfg.RateLimitWindow),
			logger.Bool("trust_proxy", cfg.TrustProxy))
	} else {
		loggerClient.Warn("rate limiting disabled")
	}

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		Items:          domain.NewItemService(a.store, loggerClient, svcOpts...),
		Limiter:        limiter,
		Recorders:      recorders,
		TrustProxy:     cfg.TrustProxy,
		Stats:          stats,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        m,
		MetricsCIDRS:   cfg.MetricsCIDRS,
		DB:             a.store,
		DBDriver:       a.store.Driver(),
		Redis:          redisPing,
	}

	a.server = httpserver.New(cfg, loggerClient, d)
	return a, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s on %s", version.Summary(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.sweeper != nil {
		if err := a.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start window sweeper: %w", err)
		}
		a.logger.Info("window sweeper started",
			logger.Duration("interval", a.cfg.RateLimitSweepInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.closeStores()
	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ demo-api stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

// closeStores flushes pending stats, then releases Redis and the database.
func (a *App) closeStores() {
	if a.statsSink != nil {
		utils.CloseLogged(a.statsSink, "stats recorder", a.logger)
		if n := a.statsSink.Dropped(); n > 0 {
			a.logger.Warn("rate limit stats dropped", logger.Int64("events", n))
		}
		a.statsSink = nil
	}
	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
		a.redisClient = nil
	}
	if a.store != nil {
		utils.CloseLogged(a.store, "database", a.logger)
		a.store = nil
	}
}
