package snap

import (
	"fmt"
	"sort"

	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
)

// Registry derives snap points from the duct graph and external
// room/equipment entities and keeps the SpatialIndex in sync. On a
// mutation it regenerates only the points owned by the changed
// entities; unrelated entities are never touched.
type Registry struct {
	idx *SpatialIndex
	g   *graph.DuctGraph

	// owned maps an entity key to the IDs of snap points it produced,
	// so regeneration can remove exactly its own stale points.
	owned map[string][]string
}

// NewRegistry creates a registry bound to a graph and index.
func NewRegistry(g *graph.DuctGraph, idx *SpatialIndex) *Registry {
	return &Registry{
		idx:   idx,
		g:     g,
		owned: make(map[string][]string),
	}
}

// Index returns the registry's spatial index.
func (r *Registry) Index() *SpatialIndex { return r.idx }

func entityKey(ref graph.EntityRef) string {
	return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
}

// drop removes all snap points previously generated for an entity key.
func (r *Registry) drop(key string) {
	for _, id := range r.owned[key] {
		r.idx.Remove(id)
	}
	delete(r.owned, key)
}

func (r *Registry) record(key string, pt Point) {
	r.idx.Insert(pt)
	r.owned[key] = append(r.owned[key], pt.ID)
}

// SyncNode regenerates the endpoint snap point for a node. Call after
// the node is added or moved; call RemoveEntity when it is deleted.
func (r *Registry) SyncNode(id graph.NodeID) {
	ref := graph.NodeRef(id)
	key := entityKey(ref)
	r.drop(key)
	n := r.g.Node(id)
	if n == nil {
		return
	}
	r.record(key, Point{
		ID:       "ep:" + string(id),
		Position: n.Position,
		Kind:     KindEndpoint,
		Owner:    ref,
	})
}

// SyncEdge regenerates the snap points owned by an edge: its interior
// centerline points, its midpoint, and its intersections with nearby
// edges. Neighboring edges are found through a spatial pre-query, never
// by scanning the whole graph.
func (r *Registry) SyncEdge(id graph.EdgeID) {
	ref := graph.EdgeRef(id)
	key := entityKey(ref)
	r.drop(key)
	// Crossings recorded by the edge's previous geometry may involve
	// edges no longer near the new path, so every pair key goes first.
	r.dropPairKeys(string(id))
	c := r.g.Edge(id)
	if c == nil {
		return
	}

	if c.Curve == graph.CurveSegmented && c.Segmented != nil {
		for i, wp := range c.Segmented.Waypoints {
			r.record(key, Point{
				ID:       fmt.Sprintf("cl:%s:%d", id, i),
				Position: wp,
				Kind:     KindCenterline,
				Owner:    ref,
			})
		}
	}

	r.record(key, Point{
		ID:       "mid:" + string(id),
		Position: r.g.Midpoint(id),
		Kind:     KindMidpoint,
		Owner:    ref,
	})

	for _, other := range r.neighborEdges(id) {
		r.syncIntersections(id, other)
	}
}

// RemoveEntity drops every snap point the entity produced, including
// pairwise intersections with its neighbors.
func (r *Registry) RemoveEntity(ref graph.EntityRef) {
	r.drop(entityKey(ref))
	if ref.Kind == graph.EntityEdge {
		r.dropPairKeys(ref.ID)
	}
}

// dropPairKeys removes every jointly owned intersection key involving
// the edge.
func (r *Registry) dropPairKeys(edgeID string) {
	for key := range r.owned {
		if len(key) > 2 && key[:2] == "x:" && containsEdge(key, edgeID) {
			r.drop(key)
		}
	}
}

// RegisterExternal indexes snap points for a room or equipment entity
// supplied by the host (corners, connection collars). Re-registering an
// entity replaces its previous points.
func (r *Registry) RegisterExternal(ref graph.EntityRef, points []Point) {
	key := entityKey(ref)
	r.drop(key)
	for _, pt := range points {
		pt.Owner = ref
		r.record(key, pt)
	}
}

// RebuildAll regenerates every snap point from scratch. Used after
// deserialization; interactive edits use the per-entity Sync methods.
func (r *Registry) RebuildAll() {
	for key := range r.owned {
		r.drop(key)
	}
	for _, id := range r.g.NodeIDs() {
		r.SyncNode(id)
	}
	for _, id := range r.g.EdgeIDs() {
		r.SyncEdge(id)
	}
}

// neighborEdges returns the edges whose snap points fall within the
// bounding circle of the given edge's path, excluding the edge itself
// and edges sharing a node with it.
func (r *Registry) neighborEdges(id graph.EdgeID) []graph.EdgeID {
	c := r.g.Edge(id)
	path := r.g.EdgePath(id)

	// Bounding circle of the path.
	var lo, hi geom.Point2D
	lo, hi = path[0], path[0]
	for _, p := range path[1:] {
		lo = geom.Point2D{X: minf(lo.X, p.X), Y: minf(lo.Y, p.Y)}
		hi = geom.Point2D{X: maxf(hi.X, p.X), Y: maxf(hi.Y, p.Y)}
	}
	center := lo.Lerp(hi, 0.5)
	radius := hi.Dist(lo)/2 + 1 // slack so endpoint-only neighbors register

	seen := make(map[graph.EdgeID]bool)
	consider := func(other graph.EdgeID) {
		if other == id || seen[other] {
			return
		}
		oc := r.g.Edge(other)
		if oc == nil {
			return
		}
		if oc.A == c.A || oc.A == c.B || oc.B == c.A || oc.B == c.B {
			return // shared node, junction not crossing
		}
		seen[other] = true
	}
	for _, pt := range r.idx.QueryNear(center, radius) {
		switch pt.Owner.Kind {
		case graph.EntityEdge:
			consider(graph.EdgeID(pt.Owner.ID))
		case graph.EntityNode:
			// A nearby node stands in for all its incident edges, so a
			// crossing edge registers even when its own derived points
			// fall outside the query circle.
			for _, e := range r.g.IncidentEdges(graph.NodeID(pt.Owner.ID)) {
				consider(e)
			}
		}
	}

	out := make([]graph.EdgeID, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// syncIntersections computes the pairwise crossings of two edges and
// indexes them under a canonical pair key, so either edge's removal
// clears them.
func (r *Registry) syncIntersections(a, b graph.EdgeID) {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	key := fmt.Sprintf("x:%s:%s", lo, hi)
	r.drop(key)

	pa := r.g.EdgePath(a)
	pb := r.g.EdgePath(b)
	n := 0
	for i := 1; i < len(pa); i++ {
		for j := 1; j < len(pb); j++ {
			pt, ta, tb, ok := geom.SegmentIntersection(pa[i-1], pa[i], pb[j-1], pb[j])
			if !ok {
				continue
			}
			// Interior crossings only; endpoint touches are junctions.
			if isEndpointTouch(ta, i, len(pa)) || isEndpointTouch(tb, j, len(pb)) {
				continue
			}
			r.record(key, Point{
				ID:       fmt.Sprintf("%s:%d", key, n),
				Position: pt,
				Kind:     KindIntersection,
				Owner:    graph.EdgeRef(lo),
			})
			n++
		}
	}
}

// isEndpointTouch reports whether parameter t on sub-segment i of a
// path with total points n lands on the path's outer endpoint.
func isEndpointTouch(t float64, i, n int) bool {
	const eps = 1e-9
	if i == 1 && t < eps {
		return true
	}
	return i == n-1 && t > 1-eps
}

func containsEdge(pairKey, edgeID string) bool {
	// pairKey is "x:<lo>:<hi>".
	rest := pairKey[2:]
	for i := 0; i < len(rest); i++ {
		if rest[i] == ':' {
			return rest[:i] == edgeID || rest[i+1:] == edgeID
		}
	}
	return false
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
