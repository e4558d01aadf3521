package graph

import (
	"math"
	"sort"

	"github.com/hvackit/ductline/pkg/geom"
)

// DefaultAngleTolerance is the tolerance, in degrees, used when
// classifying incident-edge angles into fitting families.
const DefaultAngleTolerance = 7.5

// FittingHintFor infers the fitting family for a node from its degree
// and the directions of its incident edges. The hint is derived on
// demand and never persisted.
//
//	degree 2: coupling if colinear, elbow otherwise
//	degree 3: tee if the branch is perpendicular to a straight through
//	          run, wye otherwise
//	degree 4: cross if the edges form two perpendicular through runs,
//	          multi-way otherwise
func (g *DuctGraph) FittingHintFor(id NodeID, angleTolDeg float64) FittingHint {
	if angleTolDeg <= 0 {
		angleTolDeg = DefaultAngleTolerance
	}
	edges := g.IncidentEdges(id)
	switch len(edges) {
	case 0, 1:
		return FittingNone
	case 2:
		if g.colinearPair(id, edges[0], edges[1], angleTolDeg) {
			return FittingCoupling
		}
		return FittingElbow
	case 3:
		return g.threeWayHint(id, edges, angleTolDeg)
	case 4:
		if g.isCross(id, edges, angleTolDeg) {
			return FittingCross
		}
		return FittingMultiWay
	default:
		return FittingMultiWay
	}
}

// directions returns the outgoing unit direction of each edge at the node.
func (g *DuctGraph) directions(id NodeID, edges []EdgeID) []geom.Point2D {
	dirs := make([]geom.Point2D, len(edges))
	for i, e := range edges {
		dirs[i] = g.EdgeDirection(e, id)
	}
	return dirs
}

// colinearPair reports whether two edges continue straight through the
// node (their outgoing directions are opposed within tolerance).
func (g *DuctGraph) colinearPair(id NodeID, a, b EdgeID, tolDeg float64) bool {
	da := g.EdgeDirection(a, id)
	db := g.EdgeDirection(b, id)
	between := geom.Degrees(math.Acos(clamp(da.Dot(db), -1, 1)))
	return math.Abs(between-180) <= tolDeg
}

// threeWayHint distinguishes tee from wye. A tee requires a straight
// through run (two opposed edges) with the third edge perpendicular to
// it; every other 3-way junction is a wye.
func (g *DuctGraph) threeWayHint(id NodeID, edges []EdgeID, tolDeg float64) FittingHint {
	dirs := g.directions(id, edges)
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if !opposed(dirs[i], dirs[j], tolDeg) {
				continue
			}
			k := 3 - i - j // the branch
			branch := geom.Degrees(math.Acos(clamp(dirs[i].Dot(dirs[k]), -1, 1)))
			if math.Abs(branch-90) <= tolDeg {
				return FittingTee
			}
			return FittingWye
		}
	}
	return FittingWye
}

// isCross reports whether four incident edges form two perpendicular
// straight through runs.
func (g *DuctGraph) isCross(id NodeID, edges []EdgeID, tolDeg float64) bool {
	dirs := g.directions(id, edges)
	// Sort by heading and require opposed pairs (0,2) and (1,3) with a
	// perpendicular crossing.
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Angle() < dirs[j].Angle() })
	if !opposed(dirs[0], dirs[2], tolDeg) || !opposed(dirs[1], dirs[3], tolDeg) {
		return false
	}
	cross := geom.Degrees(math.Acos(clamp(dirs[0].Dot(dirs[1]), -1, 1)))
	return math.Abs(cross-90) <= tolDeg
}

func opposed(a, b geom.Point2D, tolDeg float64) bool {
	between := geom.Degrees(math.Acos(clamp(a.Dot(b), -1, 1)))
	return math.Abs(between-180) <= tolDeg
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
