package opt

// Sequence orders interior stops by greedy nearest neighbour starting at
// origin and appends destination. Ties go to the stop that appears first in
// interior, so the result is deterministic for a given input order.
func Sequence(origin, destination Stop, interior []Stop) Route {
	route := make(Route, 0, len(interior)+2)
	route = append(route, origin)
	visited := make([]bool, len(interior))
	cur := origin.Point
	for n := 0; n < len(interior); n++ {
		best := -1
		bestDist := 0.0
		for i, s := range interior {
			if visited[i] {
				continue
			}
			d := Distance(cur, s.Point)
			if best < 0 || d < bestDist {
				best = i
				bestDist = d
			}
		}
		visited[best] = true
		route = append(route, interior[best])
		cur = interior[best].Point
	}
	return append(route, destination)
}
