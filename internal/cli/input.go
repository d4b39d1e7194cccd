package cli

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"courierplan/internal/config"
	"courierplan/internal/integrations"
	"courierplan/internal/integrations/csvfile"
	"courierplan/internal/model"
	"courierplan/internal/routing"
)

// parseLatLng reads "lat,lng".
func parseLatLng(s string) (model.GeoPoint, error) {
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return model.GeoPoint{}, fmt.Errorf("want lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("lat in %q: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil {
		return model.GeoPoint{}, fmt.Errorf("lng in %q: %w", s, err)
	}
	return model.GeoPoint{Lat: lat, Lng: lng}, nil
}

// routeFlags are the inputs shared by plan and sequence.
type routeFlags struct {
	origin      string
	destination string
	stops       string
	avoid       []string
	format      string
}

func (f *routeFlags) endpoints() (model.StopIn, model.StopIn, error) {
	o, err := parseLatLng(f.origin)
	if err != nil {
		return model.StopIn{}, model.StopIn{}, fmt.Errorf("--origin: %w", err)
	}
	d := o
	if f.destination != "" {
		if d, err = parseLatLng(f.destination); err != nil {
			return model.StopIn{}, model.StopIn{}, fmt.Errorf("--destination: %w", err)
		}
	}
	return model.StopIn{Label: "origin", Location: &o}, model.StopIn{Label: "destination", Location: &d}, nil
}

func (f *routeFlags) loadStops(ctx context.Context) ([]model.StopIn, error) {
	var src integrations.StopSource = csvfile.Source{Path: f.stops}
	stops, err := src.FetchStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", src.Name(), f.stops, err)
	}
	return stops, nil
}

func (f *routeFlags) routeOptions() (*model.RouteOptions, error) {
	if len(f.avoid) == 0 {
		return nil, nil
	}
	ro := &model.RouteOptions{}
	for _, a := range f.avoid {
		switch strings.ToLower(strings.TrimSpace(a)) {
		case "highways":
			ro.AvoidHighways = true
		case "tolls":
			ro.AvoidTolls = true
		case "ferries":
			ro.AvoidFerries = true
		default:
			return nil, fmt.Errorf("--avoid: unknown feature %q (highways, tolls, ferries)", a)
		}
	}
	return ro, nil
}

// routingClient builds an ORS client backed by a local SQLite cache. The
// returned close func is never nil.
func routingClient(ctx context.Context, cfg config.Routing, cachePath string) (*routing.Client, func(), error) {
	noop := func() {}
	if cfg.APIKey == "" {
		return nil, noop, fmt.Errorf("routing is not configured: set ORS_API_KEY or routing.api_key")
	}
	var (
		cache   routing.Cache
		closeFn = noop
	)
	if cachePath != "" {
		db, err := sql.Open("sqlite", cachePath)
		if err != nil {
			return nil, noop, fmt.Errorf("open routing cache: %w", err)
		}
		db.SetMaxOpenConns(1)
		sc, err := routing.NewSQLiteCache(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		cache = sc
		closeFn = func() { _ = db.Close() }
	}
	c, err := routing.New(routing.Config{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Profile:     cfg.Profile,
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		RPS:         cfg.RPS,
		CacheTTL:    cfg.CacheTTL,
	}, cache)
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	return c, closeFn, nil
}
