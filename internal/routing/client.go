// Package routing talks to an OpenRouteService-compatible API for road
// distances, road durations and geocoding. Results are used for display
// only; the planning engine never waits on this package.
package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const Provider = "openrouteservice"

var (
	// ErrUpstream is matched by every non-2xx answer from the service.
	ErrUpstream = errors.New("routing upstream error")
	ErrNoResult = errors.New("routing: no result")
)

// Options are road features to avoid.
type Options struct {
	AvoidHighways bool
	AvoidTolls    bool
	AvoidFerries  bool
}

func (o Options) avoidFeatures() []string {
	var out []string
	if o.AvoidHighways {
		out = append(out, "highways")
	}
	if o.AvoidTolls {
		out = append(out, "tollways")
	}
	if o.AvoidFerries {
		out = append(out, "ferries")
	}
	return out
}

// Summary is a road distance and duration for a whole route.
type Summary struct {
	DistanceKm      float64 `json:"distanceKm"`
	DurationMinutes float64 `json:"durationMinutes"`
}

type Config struct {
	BaseURL     string
	APIKey      string
	Profile     string
	Timeout     time.Duration
	MaxAttempts int
	// RPS throttles outgoing calls. 0 disables throttling.
	RPS      float64
	CacheTTL time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	http        *http.Client
	baseURL     string
	apiKey      string
	profile     string
	maxAttempts int
	backoff     time.Duration
	limiter     *rate.Limiter
	cache       Cache
	cacheTTL    time.Duration
}

// New returns a client. cache may be nil.
func New(cfg Config, cache Cache) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("routing: api key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openrouteservice.org"
	}
	if cfg.Profile == "" {
		cfg.Profile = "driving-car"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 4
	}
	c := &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		profile:     cfg.Profile,
		maxAttempts: cfg.MaxAttempts,
		backoff:     200 * time.Millisecond,
		cache:       cache,
		cacheTTL:    cfg.CacheTTL,
	}
	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(1, int(cfg.RPS)))
	}
	return c, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("routing: rate limit wait: %w", err)
	}
	return nil
}
