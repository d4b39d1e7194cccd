package opt

import (
	"math"
	"math/rand"
	"time"
)

const (
	// DefaultMaxIterations is the number of annealing steps per search.
	DefaultMaxIterations = 1000
	// DefaultTemperature is the starting temperature, in score minutes.
	DefaultTemperature = 100.0
	// DefaultCoolingRate multiplies the temperature after every step.
	DefaultCoolingRate = 0.995
)

// BalanceOptions tunes the two-courier annealing search. Zero values fall
// back to the package defaults.
type BalanceOptions struct {
	MaxIterations int
	Temperature   float64
	CoolingRate   float64
	// Textbook keeps a separate current state and only replaces the best
	// partition on strict improvement. The default walk overwrites the best
	// partition with every accepted neighbour.
	Textbook bool
	// Seed seeds a private rng when Rand is nil. 0 picks a time-derived seed,
	// which is reported back in BalanceStats.Seed.
	Seed int64
	Rand *rand.Rand
	// Observe, if set, is called once per iteration before cooling.
	Observe func(Step)
}

// Step is a single annealing iteration as seen by BalanceOptions.Observe.
type Step struct {
	Iteration   int
	Temperature float64
	Score       float64
	BestScore   float64
	Moved       bool
	Accepted    bool
}

// BalanceStats summarizes a search run.
type BalanceStats struct {
	Seed             int64   `json:"seed"`
	Textbook         bool    `json:"textbook"`
	Iterations       int     `json:"iterations"`
	Moves            int     `json:"moves"`
	Accepted         int     `json:"accepted"`
	AcceptedWorse    int     `json:"acceptedWorse"`
	Improvements     int     `json:"improvements"`
	InitialImbalance float64 `json:"initialImbalance"`
	SearchImbalance  float64 `json:"searchImbalance"`
	Imbalance        float64 `json:"imbalance"`
	FinalTemperature float64 `json:"finalTemperature"`
}

// BalanceResult holds the two sequenced routes.
type BalanceResult struct {
	Route1 Route
	Route2 Route
	Stats  BalanceStats
}

func (o BalanceOptions) withDefaults() BalanceOptions {
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.CoolingRate == 0 {
		o.CoolingRate = DefaultCoolingRate
	}
	return o
}

// Validate rejects parameters that would break cooling.
func (o BalanceOptions) Validate() error {
	if o.MaxIterations < 0 {
		return invalid("maxIterations", "must be >= 0")
	}
	if o.Temperature < 0 || math.IsNaN(o.Temperature) || math.IsInf(o.Temperature, 0) {
		return invalid("temperature", "must be a positive number")
	}
	if o.CoolingRate != 0 && (o.CoolingRate <= 0 || o.CoolingRate >= 1 || math.IsNaN(o.CoolingRate)) {
		return invalid("coolingRate", "must be in (0,1)")
	}
	return nil
}

type bisection struct {
	a, b []Stop
}

func (p bisection) clone() bisection {
	return bisection{
		a: append([]Stop(nil), p.a...),
		b: append([]Stop(nil), p.b...),
	}
}

// BalanceTwoRoutes splits interior between two couriers using DefaultModel.
func BalanceTwoRoutes(origin, destination Stop, interior []Stop, opts BalanceOptions) (BalanceResult, error) {
	return DefaultModel.BalanceTwoRoutes(origin, destination, interior, opts)
}

// BalanceTwoRoutes searches for the bisection of interior that minimizes the
// absolute difference between both route durations. Durations are evaluated
// on the order each group holds during the search; both groups are sequenced
// once the search ends.
func (m DistanceModel) BalanceTwoRoutes(origin, destination Stop, interior []Stop, opts BalanceOptions) (BalanceResult, error) {
	if err := validateInput(origin, destination, interior); err != nil {
		return BalanceResult{}, err
	}
	if err := opts.Validate(); err != nil {
		return BalanceResult{}, err
	}
	opts = opts.withDefaults()

	stats := BalanceStats{Seed: opts.Seed, Textbook: opts.Textbook}
	rng := opts.Rand
	if rng == nil {
		if stats.Seed == 0 {
			stats.Seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(stats.Seed))
	}

	score := func(p bisection) float64 {
		return math.Abs(m.groupDuration(origin, destination, p.a) - m.groupDuration(origin, destination, p.b))
	}

	mid := len(interior) / 2
	best := bisection{a: interior[:mid], b: interior[mid:]}.clone()
	bestScore := score(best)
	cur, curScore := best, bestScore
	stats.InitialImbalance = bestScore

	temp := opts.Temperature
	for it := 1; it <= opts.MaxIterations; it++ {
		ref, refScore := best, bestScore
		if opts.Textbook {
			ref, refScore = cur, curScore
		}
		cand, moved := neighbour(ref, rng)
		candScore := score(cand)
		accepted := candScore < refScore || rng.Float64() < math.Exp((refScore-candScore)/temp)

		stats.Iterations++
		if moved {
			stats.Moves++
		}
		if accepted {
			stats.Accepted++
			if candScore > refScore {
				stats.AcceptedWorse++
			}
			if candScore < bestScore {
				stats.Improvements++
			}
			if opts.Textbook {
				cur, curScore = cand, candScore
				if candScore < bestScore {
					best, bestScore = cand, candScore
				}
			} else {
				best, bestScore = cand, candScore
			}
		}
		if opts.Observe != nil {
			opts.Observe(Step{
				Iteration:   it,
				Temperature: temp,
				Score:       candScore,
				BestScore:   bestScore,
				Moved:       moved,
				Accepted:    accepted,
			})
		}
		temp *= opts.CoolingRate
	}
	stats.FinalTemperature = temp
	stats.SearchImbalance = bestScore

	r1 := Sequence(origin, destination, best.a)
	r2 := Sequence(origin, destination, best.b)
	stats.Imbalance = math.Abs(m.RouteDuration(r1) - m.RouteDuration(r2))
	return BalanceResult{Route1: r1, Route2: r2, Stats: stats}, nil
}

// neighbour copies p and moves one random stop out of a randomly chosen
// group, provided that group keeps at least one stop.
func neighbour(p bisection, rng *rand.Rand) (bisection, bool) {
	next := p.clone()
	src, dst := &next.a, &next.b
	if rng.Float64() >= 0.5 {
		src, dst = &next.b, &next.a
	}
	if len(*src) <= 1 {
		return next, false
	}
	i := rng.Intn(len(*src))
	s := (*src)[i]
	*src = append((*src)[:i], (*src)[i+1:]...)
	*dst = append(*dst, s)
	return next, true
}

// groupDuration is RouteDuration of [origin, group..., destination] without
// building the route.
func (m DistanceModel) groupDuration(origin, destination Stop, group []Stop) float64 {
	total := 0.0
	prev := origin.Point
	for _, s := range group {
		total += m.TravelMinutes(Distance(prev, s.Point)) + float64(s.DwellMinutes)
		prev = s.Point
	}
	return total + m.TravelMinutes(Distance(prev, destination.Point))
}
