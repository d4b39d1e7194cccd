package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )
    // RateLimited counts requests rejected by the token bucket
    RateLimited = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "http_rate_limited_total", Help: "Requests rejected with 429."},
    )

    // Plans counts planning runs by strategy and outcome
    Plans = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "courier_plans_total", Help: "Planning runs by strategy and outcome."},
        []string{"strategy", "outcome"},
    )
    // PlanDuration is wall time spent inside the engine
    PlanDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "courier_plan_duration_seconds", Help: "Engine wall time per plan.", Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}},
        []string{"strategy"},
    )
    // PlanImbalance is the spread between longest and shortest route, in minutes
    PlanImbalance = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "courier_plan_imbalance_minutes", Help: "Longest minus shortest route duration.", Buckets: []float64{0, 1, 2, 5, 10, 20, 40, 80}},
        []string{"strategy"},
    )
    // AnnealAccepted counts accepted annealing moves, split by whether they worsened the score
    AnnealAccepted = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "courier_anneal_accepted_total", Help: "Accepted annealing neighbours."},
        []string{"kind"},
    )

    // RoutingRequests counts calls to the external routing service
    RoutingRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "routing_requests_total", Help: "External routing calls by operation and status."},
        []string{"op", "status"},
    )
    // RoutingCache counts cache lookups by result (hit, miss)
    RoutingCache = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "routing_cache_total", Help: "Routing cache lookups."},
        []string{"result"},
    )

    // WebhookDeliveries counts webhook delivery outcomes by event type and status
    WebhookDeliveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
        []string{"event_type", "status"},
    )
    // WebhookLatency tracks webhook delivery latencies in milliseconds
    WebhookLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
        []string{"event_type", "status"},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests, HTTPDuration, RateLimited)
        Registry.MustRegister(Plans, PlanDuration, PlanImbalance, AnnealAccepted)
        Registry.MustRegister(RoutingRequests, RoutingCache)
        Registry.MustRegister(WebhookDeliveries, WebhookLatency)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
