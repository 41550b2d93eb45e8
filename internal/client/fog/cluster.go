package fog

import "math"

type screenPoint struct {
	X, Y float64
}

// cluster greedily merges points lying within threshold pixels of an
// unvisited seed and replaces each group with its centroid. The result
// depends on input order.
func cluster(points []screenPoint, threshold float64) []screenPoint {
	if len(points) == 0 {
		return nil
	}
	visited := make([]bool, len(points))
	out := make([]screenPoint, 0, len(points))
	t2 := threshold * threshold

	for i, seed := range points {
		if visited[i] {
			continue
		}
		visited[i] = true
		sx, sy, n := seed.X, seed.Y, 1.0

		for j := i + 1; j < len(points); j++ {
			if visited[j] {
				continue
			}
			dx, dy := points[j].X-seed.X, points[j].Y-seed.Y
			if dx*dx+dy*dy <= t2 {
				visited[j] = true
				sx += points[j].X
				sy += points[j].Y
				n++
			}
		}
		out = append(out, screenPoint{X: sx / n, Y: sy / n})
	}
	return out
}

// posMod is the floored modulo, always in [0, m).
func posMod(v, m float64) float64 {
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	return r
}
