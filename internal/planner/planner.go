// Package planner turns wire requests into engine calls and engine output
// into wire plans. The HTTP API and the CLI share it.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"courierplan/internal/config"
	"courierplan/internal/logging"
	"courierplan/internal/metrics"
	"courierplan/internal/model"
	"courierplan/internal/opt"
	"courierplan/internal/routing"
	"courierplan/internal/share"
)

// Router is the road routing backend used to enrich plans. *routing.Client
// satisfies it.
type Router interface {
	Summary(ctx context.Context, points []opt.Point, o routing.Options) (routing.Summary, error)
}

type Service struct {
	Engine       opt.Engine
	DefaultDwell int
	// Router is optional; without it enrich requests are ignored.
	Router Router

	now   func() time.Time
	newID func() string
}

func New(cfg config.Engine, router Router) *Service {
	return &Service{
		Engine: opt.Engine{
			Model: opt.DistanceModel{SpeedKmh: cfg.SpeedKmh},
			Balance: opt.BalanceOptions{
				MaxIterations: cfg.MaxIterations,
				Temperature:   cfg.Temperature,
				CoolingRate:   cfg.CoolingRate,
				Textbook:      cfg.Textbook,
			},
			MaxIterationsCeiling: cfg.MaxIterationsCeiling,
			MaxCouriers:          cfg.MaxCouriers,
		},
		DefaultDwell: cfg.DefaultDwellMinutes,
		Router:       router,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Plan partitions, balances and sequences the request's stops.
func (s *Service) Plan(ctx context.Context, req model.PlanRequest) (_ model.Plan, err error) {
	defer logging.Time(ctx, "planner.Plan")(&err)

	in, err := s.planInput(req)
	if err != nil {
		metrics.Plans.WithLabelValues("none", "invalid").Inc()
		return model.Plan{}, err
	}

	start := time.Now()
	res, err := s.Engine.Plan(in)
	if err != nil {
		metrics.Plans.WithLabelValues("none", "invalid").Inc()
		return model.Plan{}, err
	}
	strategy := string(res.Strategy)
	metrics.PlanDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	metrics.PlanImbalance.WithLabelValues(strategy).Observe(res.Imbalance)
	metrics.Plans.WithLabelValues(strategy, "ok").Inc()

	out := model.Plan{
		ID:          s.newID(),
		CreatedAt:   s.now().UTC(),
		Strategy:    strategy,
		Couriers:    req.Couriers,
		Origin:      stopOut(in.Origin),
		Destination: stopOut(in.Destination),
		Routes:      make([]model.RouteOut, len(res.Routes)),
		Imbalance:   res.Imbalance,
	}
	for i, r := range res.Routes {
		out.Routes[i] = s.routeOut(i+1, r, res.Durations[i], req.RouteOptions)
	}
	if st := res.Stats; st != nil {
		metrics.AnnealAccepted.WithLabelValues("worse").Add(float64(st.AcceptedWorse))
		metrics.AnnealAccepted.WithLabelValues("better").Add(float64(st.Accepted - st.AcceptedWorse))
		out.Stats = &model.PlanStats{
			Seed:             st.Seed,
			Textbook:         st.Textbook,
			Iterations:       st.Iterations,
			Moves:            st.Moves,
			Accepted:         st.Accepted,
			AcceptedWorse:    st.AcceptedWorse,
			Improvements:     st.Improvements,
			InitialImbalance: st.InitialImbalance,
			SearchImbalance:  st.SearchImbalance,
			FinalTemperature: st.FinalTemperature,
		}
	}

	if req.Enrich {
		s.enrich(ctx, out.Routes, req.RouteOptions)
	}
	logging.FromContext(ctx).Info("plan.created",
		"plan_id", out.ID, "strategy", strategy, "couriers", out.Couriers,
		"stops", len(in.Stops), "imbalance_min", res.Imbalance)
	return out, nil
}

// Sequence orders a single courier's stops.
func (s *Service) Sequence(ctx context.Context, req model.SequenceRequest) (_ model.RouteOut, err error) {
	defer logging.Time(ctx, "planner.Sequence")(&err)

	origin, err := s.stopIn("origin", req.Origin, 0)
	if err != nil {
		return model.RouteOut{}, err
	}
	dest, err := s.stopIn("destination", req.Destination, 0)
	if err != nil {
		return model.RouteOut{}, err
	}
	stops, err := s.stopsIn(req.Stops)
	if err != nil {
		return model.RouteOut{}, err
	}
	r, err := s.Engine.Sequence(origin, dest, stops)
	if err != nil {
		return model.RouteOut{}, err
	}
	return s.routeOut(1, r, s.Engine.Model.RouteDuration(r), req.RouteOptions), nil
}

// Duration prices a route in the given order, first and last entries being
// origin and destination.
func (s *Service) Duration(ctx context.Context, req model.DurationRequest) (model.DurationResponse, error) {
	r := make(opt.Route, len(req.Route))
	for i, in := range req.Route {
		// endpoints carry no dwell
		dwell := s.DefaultDwell
		if i == 0 || i == len(req.Route)-1 {
			dwell = 0
		}
		st, err := s.stopIn(fmt.Sprintf("route[%d]", i), in, dwell)
		if err != nil {
			return model.DurationResponse{}, err
		}
		r[i] = st
	}
	d, err := s.Engine.RouteDuration(r)
	if err != nil {
		return model.DurationResponse{}, err
	}
	return model.DurationResponse{
		DurationMinutes: d,
		DistanceKm:      opt.RouteDistance(r),
		Duration:        share.FormatDuration(d),
	}, nil
}

// EngineConfig is the effective engine tuning, as reported by the API.
type EngineConfig struct {
	SpeedKmh             float64 `json:"speedKmh"`
	DefaultDwellMinutes  int     `json:"defaultDwellMinutes"`
	MaxIterations        int     `json:"maxIterations"`
	MaxIterationsCeiling int     `json:"maxIterationsCeiling"`
	MaxCouriers          int     `json:"maxCouriers"`
	Temperature          float64 `json:"temperature"`
	CoolingRate          float64 `json:"coolingRate"`
	Textbook             bool    `json:"textbook"`
	RoadEnrichment       bool    `json:"roadEnrichment"`
}

func (s *Service) EngineConfig() EngineConfig {
	speed := s.Engine.Model.SpeedKmh
	if speed <= 0 {
		speed = opt.AverageSpeedKmh
	}
	b := s.Engine.Balance
	return EngineConfig{
		SpeedKmh:             speed,
		DefaultDwellMinutes:  s.DefaultDwell,
		MaxIterations:        orInt(b.MaxIterations, opt.DefaultMaxIterations),
		MaxIterationsCeiling: s.Engine.MaxIterationsCeiling,
		MaxCouriers:          s.maxCouriers(),
		Temperature:          orFloat(b.Temperature, opt.DefaultTemperature),
		CoolingRate:          orFloat(b.CoolingRate, opt.DefaultCoolingRate),
		Textbook:             b.Textbook,
		RoadEnrichment:       s.Router != nil,
	}
}

func (s *Service) maxCouriers() int {
	if n := s.Engine.MaxCouriers; n > 0 && n <= opt.MaxCouriers {
		return n
	}
	return opt.MaxCouriers
}

func (s *Service) planInput(req model.PlanRequest) (opt.PlanInput, error) {
	origin, err := s.stopIn("origin", req.Origin, 0)
	if err != nil {
		return opt.PlanInput{}, err
	}
	dest, err := s.stopIn("destination", req.Destination, 0)
	if err != nil {
		return opt.PlanInput{}, err
	}
	stops, err := s.stopsIn(req.Stops)
	if err != nil {
		return opt.PlanInput{}, err
	}
	return opt.PlanInput{
		Origin:      origin,
		Destination: dest,
		Stops:       stops,
		Couriers:    req.Couriers,
		Balance: opt.BalanceOptions{
			MaxIterations: req.MaxIterations,
			Temperature:   req.Temperature,
			CoolingRate:   req.CoolingRate,
			Textbook:      req.Textbook,
			Seed:          req.Seed,
		},
	}, nil
}

func (s *Service) stopsIn(in []model.StopIn) ([]opt.Stop, error) {
	out := make([]opt.Stop, len(in))
	for i, st := range in {
		v, err := s.stopIn(fmt.Sprintf("stops[%d]", i), st, s.DefaultDwell)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Service) stopIn(field string, in model.StopIn, defaultDwell int) (opt.Stop, error) {
	if in.Location == nil {
		return opt.Stop{}, &opt.InputError{Field: field, Reason: "location is required"}
	}
	st := opt.Stop{
		Point:        opt.Point{Lat: in.Location.Lat, Lng: in.Location.Lng},
		Label:        in.Label,
		DwellMinutes: defaultDwell,
	}
	if in.DwellMinutes != nil {
		st.DwellMinutes = *in.DwellMinutes
	}
	return st, opt.ValidateStop(field, st)
}

func (s *Service) routeOut(courier int, r opt.Route, minutes float64, ro *model.RouteOptions) model.RouteOut {
	stops := make([]model.StopOut, len(r))
	for i, st := range r {
		stops[i] = stopOut(st)
	}
	return model.RouteOut{
		Courier:         courier,
		Stops:           stops,
		DurationMinutes: minutes,
		DistanceKm:      opt.RouteDistance(r),
		Duration:        share.FormatDuration(minutes),
		ShareURL:        share.MapsURL(stops, ro),
	}
}

// enrich attaches road summaries. Failures are logged and leave Road nil;
// the engine's numbers stand either way.
func (s *Service) enrich(ctx context.Context, routes []model.RouteOut, ro *model.RouteOptions) {
	if s.Router == nil {
		return
	}
	o := routing.Options{}
	if ro != nil {
		o = routing.Options{AvoidHighways: ro.AvoidHighways, AvoidTolls: ro.AvoidTolls, AvoidFerries: ro.AvoidFerries}
	}
	var g errgroup.Group
	g.SetLimit(4)
	for i := range routes {
		g.Go(func() error {
			pts := make([]opt.Point, len(routes[i].Stops))
			for j, st := range routes[i].Stops {
				pts[j] = opt.Point{Lat: st.Location.Lat, Lng: st.Location.Lng}
			}
			sum, err := s.Router.Summary(ctx, pts, o)
			if err != nil {
				logging.FromContext(ctx).Warn("plan.enrich_failed", "courier", routes[i].Courier, "err", err)
				return nil
			}
			routes[i].Road = &model.RoadSummary{
				DistanceKm:      sum.DistanceKm,
				DurationMinutes: sum.DurationMinutes,
				Provider:        routing.Provider,
			}
			return nil
		})
	}
	_ = g.Wait()
}

func stopOut(s opt.Stop) model.StopOut {
	return model.StopOut{
		Label:        s.Label,
		Location:     model.GeoPoint{Lat: s.Point.Lat, Lng: s.Point.Lng},
		DwellMinutes: s.DwellMinutes,
	}
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
