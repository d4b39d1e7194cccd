package opt

import "math"

// Strategy names the component that produced a Plan.
type Strategy string

const (
	StrategyBalance Strategy = "balance"
	StrategyCluster Strategy = "cluster"
)

// Engine carries the tunables shared by every planning call. The zero value
// is usable and equals the package defaults.
type Engine struct {
	Model DistanceModel
	// Balance holds default search options; per-call options override
	// non-zero fields.
	Balance BalanceOptions
	// MaxIterationsCeiling caps any requested iteration count. 0 means no cap.
	MaxIterationsCeiling int
	// MaxCouriers caps PlanInput.Couriers. 0 or anything above the package
	// MaxCouriers means MaxCouriers.
	MaxCouriers int
}

// PlanInput is one planning request.
type PlanInput struct {
	Origin      Stop
	Destination Stop
	Stops       []Stop
	Couriers    int
	Balance     BalanceOptions
}

// Plan is the engine output: one route per courier.
type Plan struct {
	Strategy  Strategy
	Routes    []Route
	Durations []float64
	// Imbalance is the spread between the longest and shortest route.
	Imbalance float64
	Stats     *BalanceStats
}

// Plan dispatches by courier count: two couriers go through the annealing
// balancer, any other count through the greedy cluster assigner.
func (e Engine) Plan(in PlanInput) (Plan, error) {
	if in.Couriers < 1 {
		return Plan{}, invalid("couriers", "must be >= 1, got %d", in.Couriers)
	}
	if limit := e.maxCouriers(); in.Couriers > limit {
		return Plan{}, invalid("couriers", "must be <= %d, got %d", limit, in.Couriers)
	}
	if err := validateInput(in.Origin, in.Destination, in.Stops); err != nil {
		return Plan{}, err
	}

	var out Plan
	if in.Couriers == 2 {
		res, err := e.Model.BalanceTwoRoutes(in.Origin, in.Destination, in.Stops, e.balanceOptions(in.Balance))
		if err != nil {
			return Plan{}, err
		}
		stats := res.Stats
		out = Plan{Strategy: StrategyBalance, Routes: []Route{res.Route1, res.Route2}, Stats: &stats}
	} else {
		routes, err := ClusterRoutes(in.Origin, in.Destination, in.Stops, in.Couriers)
		if err != nil {
			return Plan{}, err
		}
		out = Plan{Strategy: StrategyCluster, Routes: routes}
	}

	out.Durations = make([]float64, len(out.Routes))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, r := range out.Routes {
		d := e.Model.RouteDuration(r)
		out.Durations[i] = d
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	out.Imbalance = hi - lo
	return out, nil
}

// Sequence validates its input and orders a single route.
func (e Engine) Sequence(origin, destination Stop, interior []Stop) (Route, error) {
	if err := validateInput(origin, destination, interior); err != nil {
		return nil, err
	}
	return Sequence(origin, destination, interior), nil
}

// RouteDuration validates r and returns its duration under e.Model.
func (e Engine) RouteDuration(r Route) (float64, error) {
	if len(r) < 2 {
		return 0, invalid("route", "needs origin and destination")
	}
	if err := validateInput(r[0], r[len(r)-1], r.Interior()); err != nil {
		return 0, err
	}
	return e.Model.RouteDuration(r), nil
}

func (e Engine) maxCouriers() int {
	if e.MaxCouriers <= 0 || e.MaxCouriers > MaxCouriers {
		return MaxCouriers
	}
	return e.MaxCouriers
}

func (e Engine) balanceOptions(req BalanceOptions) BalanceOptions {
	o := e.Balance
	if req.MaxIterations != 0 {
		o.MaxIterations = req.MaxIterations
	}
	if req.Temperature != 0 {
		o.Temperature = req.Temperature
	}
	if req.CoolingRate != 0 {
		o.CoolingRate = req.CoolingRate
	}
	if req.Seed != 0 {
		o.Seed = req.Seed
	}
	if req.Rand != nil {
		o.Rand = req.Rand
	}
	if req.Observe != nil {
		o.Observe = req.Observe
	}
	o.Textbook = o.Textbook || req.Textbook
	if e.MaxIterationsCeiling > 0 {
		if o.MaxIterations == 0 {
			o.MaxIterations = DefaultMaxIterations
		}
		if o.MaxIterations > e.MaxIterationsCeiling {
			o.MaxIterations = e.MaxIterationsCeiling
		}
	}
	return o
}
