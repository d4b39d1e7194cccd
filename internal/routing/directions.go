package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"courierplan/internal/logging"
	"courierplan/internal/metrics"
	"courierplan/internal/opt"
)

type directionsRequest struct {
	Coordinates [][2]float64       `json:"coordinates"`
	Options     *directionsOptions `json:"options,omitempty"`
}

type directionsOptions struct {
	AvoidFeatures []string `json:"avoid_features"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
		} `json:"summary"`
	} `json:"routes"`
}

// Summary returns the road distance and driving duration through points in
// order. Dwell time is not included.
func (c *Client) Summary(ctx context.Context, points []opt.Point, o Options) (_ Summary, err error) {
	defer logging.Time(ctx, "routing.Summary")(&err)

	if len(points) < 2 {
		return Summary{}, fmt.Errorf("routing: need at least 2 points, got %d", len(points))
	}

	key := cacheKey(c.profile, points, o)
	if c.cache != nil {
		if s, ok, cerr := c.cache.Get(ctx, key); cerr != nil {
			logging.FromContext(ctx).Warn("routing.cache.get_failed", "err", cerr)
		} else if ok {
			metrics.RoutingCache.WithLabelValues("hit").Inc()
			return s, nil
		}
		metrics.RoutingCache.WithLabelValues("miss").Inc()
	}

	body := directionsRequest{Coordinates: make([][2]float64, len(points))}
	for i, p := range points {
		body.Coordinates[i] = [2]float64{p.Lng, p.Lat}
	}
	if avoid := o.avoidFeatures(); len(avoid) > 0 {
		body.Options = &directionsOptions{AvoidFeatures: avoid}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Summary{}, fmt.Errorf("encode directions request: %w", err)
	}

	endpoint := c.baseURL + "/v2/directions/" + c.profile
	resp, err := c.doWithRetry(ctx, "directions", func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, endpoint, payload)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("directions: %w", err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Summary{}, fmt.Errorf("decode directions response: %w", err)
	}
	if len(decoded.Routes) == 0 {
		return Summary{}, ErrNoResult
	}
	sum := decoded.Routes[0].Summary
	out := Summary{DistanceKm: sum.Distance / 1000, DurationMinutes: sum.Duration / 60}

	if c.cache != nil {
		if cerr := c.cache.Set(ctx, key, out, c.cacheTTL); cerr != nil {
			logging.FromContext(ctx).Warn("routing.cache.set_failed", "err", cerr)
		}
	}
	return out, nil
}

// cacheKey is stable for identical inputs. Coordinates are rounded to ~1 m.
func cacheKey(profile string, points []opt.Point, o Options) string {
	var b strings.Builder
	b.WriteString(profile)
	for _, p := range points {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(p.Lat, 'f', 5, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Lng, 'f', 5, 64))
	}
	if avoid := o.avoidFeatures(); len(avoid) > 0 {
		b.WriteString("|avoid=")
		b.WriteString(strings.Join(avoid, "+"))
	}
	return b.String()
}
