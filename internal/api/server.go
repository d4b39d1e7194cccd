package api

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strings"

    "github.com/prometheus/client_golang/prometheus/promhttp"
    redis "github.com/redis/go-redis/v9"
    "golang.org/x/time/rate"

    "courierplan/internal/config"
    "courierplan/internal/logging"
    "courierplan/internal/metrics"
    "courierplan/internal/planner"
    "courierplan/internal/routing"
    "courierplan/internal/store"
    "courierplan/internal/webhooks"
)

type Server struct {
    Store    store.Store
    Broker   EventBroker
    Planner  *planner.Service
    Notifier *webhooks.Notifier
    Config   config.Config

    limiter *rate.Limiter
    closers []func() error
}

// NewServer wires dependencies from cfg. Without DATABASE_URL plans live in
// memory; without REDIS_URL events are fanned out in process. Background
// workers stop when ctx is done.
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
    log := logging.L()
    s := &Server{Config: cfg}

    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        s.Store = store.NewMemory()
    } else {
        pg, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        if err := pg.Migrate(ctx); err != nil {
            _ = pg.Close()
            return nil, fmt.Errorf("migrate: %w", err)
        }
        s.Store = pg
        s.closers = append(s.closers, pg.Close)
        log.Info("store.postgres")
    }

    var rdb *redis.Client
    if cfg.RedisURL != "" {
        opt, err := redis.ParseURL(cfg.RedisURL)
        if err != nil {
            s.Close()
            return nil, fmt.Errorf("parse redis url: %w", err)
        }
        rdb = redis.NewClient(opt)
        s.Broker = NewRedisBroker(rdb)
        s.closers = append(s.closers, rdb.Close)
        log.Info("broker.redis")
    } else {
        s.Broker = NewBroker()
    }

    var router planner.Router
    if cfg.Routing.APIKey != "" {
        var cache routing.Cache
        if rdb != nil {
            cache = routing.NewRedisCache(rdb)
        }
        rc, err := routing.New(routing.Config{
            BaseURL:     cfg.Routing.BaseURL,
            APIKey:      cfg.Routing.APIKey,
            Profile:     cfg.Routing.Profile,
            Timeout:     cfg.Routing.Timeout,
            MaxAttempts: cfg.Routing.MaxAttempts,
            RPS:         cfg.Routing.RPS,
            CacheTTL:    cfg.Routing.CacheTTL,
        }, cache)
        if err != nil {
            s.Close()
            return nil, err
        }
        router = rc
    }
    s.Planner = planner.New(cfg.Engine, router)

    s.Notifier = webhooks.NewNotifier(cfg.Webhooks.Secret, cfg.Webhooks.MaxAttempts, cfg.Webhooks.Timeout)
    s.Notifier.Start(ctx, 2)

    if cfg.HTTP.RateRPS > 0 {
        s.limiter = rate.NewLimiter(rate.Limit(cfg.HTTP.RateRPS), max(1, cfg.HTTP.RateBurst))
    }
    return s, nil
}

// Close releases database and Redis connections.
func (s *Server) Close() error {
    var errs []error
    for i := len(s.closers) - 1; i >= 0; i-- {
        errs = append(errs, s.closers[i]())
    }
    s.closers = nil
    return errors.Join(errs...)
}

// Routes returns the full handler tree with middleware applied.
func (s *Server) Routes() http.Handler {
    metrics.RegisterDefault()
    mux := http.NewServeMux()

    // Plans
    mux.HandleFunc("/v1/plans", s.PlansHandler)
    mux.HandleFunc("/v1/plans/", s.PlanByIDHandler) // includes /events/stream
    mux.HandleFunc("/v1/ws", s.PlanWSHandler)

    // Stateless engine calls
    mux.HandleFunc("/v1/sequence", s.SequenceHandler)
    mux.HandleFunc("/v1/route-duration", s.RouteDurationHandler)
    mux.HandleFunc("/v1/engine/config", s.EngineConfigHandler)

    // Ops
    mux.HandleFunc("/healthz", s.HealthHandler)
    mux.HandleFunc("/readyz", s.ReadyHandler)
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
    mux.HandleFunc("/debug/info", s.DebugJSON)
    mux.HandleFunc("/openapi.json", s.OpenAPIHandler)
    mux.HandleFunc("/openapi.yaml", s.OpenAPIHandler)

    return chain(mux, withRequestID, withRecover, withAccessLog, withMetrics, s.withRateLimit)
}
