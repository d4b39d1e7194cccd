package opt

// MaxCouriers bounds the group count accepted by Cluster and Engine.Plan.
const MaxCouriers = 1000

// Cluster assigns each stop, in input order, to the group whose running
// cost plus the distance from its last stop (or origin) is smallest. Ties
// go to the lowest group index. Groups keep assignment order.
func Cluster(origin Stop, interior []Stop, k int) ([][]Stop, error) {
	if k < 1 {
		return nil, invalid("couriers", "must be >= 1, got %d", k)
	}
	if k > MaxCouriers {
		return nil, invalid("couriers", "must be <= %d, got %d", MaxCouriers, k)
	}
	groups := make([][]Stop, k)
	costs := make([]float64, k)
	for _, s := range interior {
		best := 0
		bestInc := 0.0
		bestTotal := 0.0
		for j := range groups {
			last := origin.Point
			if n := len(groups[j]); n > 0 {
				last = groups[j][n-1].Point
			}
			inc := Distance(last, s.Point)
			if j == 0 || costs[j]+inc < bestTotal {
				best, bestInc, bestTotal = j, inc, costs[j]+inc
			}
		}
		groups[best] = append(groups[best], s)
		costs[best] += bestInc
	}
	return groups, nil
}

// ClusterRoutes partitions interior into k groups and sequences each one.
// A group with no stops yields [origin, destination].
func ClusterRoutes(origin, destination Stop, interior []Stop, k int) ([]Route, error) {
	if err := validateInput(origin, destination, interior); err != nil {
		return nil, err
	}
	groups, err := Cluster(origin, interior, k)
	if err != nil {
		return nil, err
	}
	routes := make([]Route, len(groups))
	for i, g := range groups {
		routes[i] = Sequence(origin, destination, g)
	}
	return routes, nil
}
