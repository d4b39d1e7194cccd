package opt

// Stop is a delivery location. Label is carried through for display and
// re-association only.
type Stop struct {
	Point        Point  `json:"point"`
	Label        string `json:"label"`
	DwellMinutes int    `json:"dwellMinutes"`
}

// Route is [origin, interior..., destination].
type Route []Stop

// Interior returns the stops between the endpoints. The slice aliases r.
func (r Route) Interior() []Stop {
	if len(r) <= 2 {
		return nil
	}
	return r[1 : len(r)-1]
}

// RouteDuration returns the route's total minutes using DefaultModel.
func RouteDuration(r Route) float64 {
	return DefaultModel.RouteDuration(r)
}

// RouteDistance returns the route's total kilometers.
func RouteDistance(r Route) float64 {
	total := 0.0
	for i := 0; i+1 < len(r); i++ {
		total += Distance(r[i].Point, r[i+1].Point)
	}
	return total
}

// RouteDuration sums leg travel minutes plus the dwell of every interior
// stop. Endpoint dwell never counts.
func (m DistanceModel) RouteDuration(r Route) float64 {
	total := 0.0
	for i := 0; i+1 < len(r); i++ {
		total += m.TravelMinutes(Distance(r[i].Point, r[i+1].Point))
	}
	for _, s := range r.Interior() {
		total += float64(s.DwellMinutes)
	}
	return total
}
