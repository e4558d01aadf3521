package snap

import (
	"testing"

	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
)

func regNode(t *testing.T, g *graph.DuctGraph, r *Registry, x, y float64) graph.NodeID {
	t.Helper()
	id := graph.NewNodeID()
	g.AddNode(&graph.Node{ID: id, Position: geom.Point2D{X: x, Y: y}})
	r.SyncNode(id)
	return id
}

func regEdge(t *testing.T, g *graph.DuctGraph, r *Registry, a, b graph.NodeID, waypoints ...geom.Point2D) graph.EdgeID {
	t.Helper()
	id := graph.NewEdgeID()
	g.AddEdge(&graph.Centerline{
		ID:        id,
		A:         a,
		B:         b,
		Curve:     graph.CurveSegmented,
		Shape:     graph.ShapeRound,
		Size:      graph.DuctSize{Diameter: 200},
		Segmented: &graph.SegmentedControl{Waypoints: waypoints},
	})
	r.SyncEdge(id)
	return id
}

func kindsAt(ix *SpatialIndex, pos geom.Point2D) map[Kind]int {
	out := make(map[Kind]int)
	for _, p := range ix.QueryNear(pos, 1) {
		out[p.Kind]++
	}
	return out
}

func TestSyncNodeFollowsMoves(t *testing.T) {
	g := graph.New()
	ix := NewSpatialIndex()
	r := NewRegistry(g, ix)

	id := regNode(t, g, r, 0, 0)
	if kindsAt(ix, geom.Point2D{})[KindEndpoint] != 1 {
		t.Fatal("no endpoint snap point at the node position")
	}

	g.Node(id).Position = geom.Point2D{X: 500, Y: 0}
	r.SyncNode(id)

	if kindsAt(ix, geom.Point2D{})[KindEndpoint] != 0 {
		t.Error("stale endpoint left at the old position")
	}
	if kindsAt(ix, geom.Point2D{X: 500, Y: 0})[KindEndpoint] != 1 {
		t.Error("no endpoint at the new position")
	}
}

func TestSyncEdgeDerivedPoints(t *testing.T) {
	g := graph.New()
	ix := NewSpatialIndex()
	r := NewRegistry(g, ix)

	a := regNode(t, g, r, 0, 0)
	b := regNode(t, g, r, 200, 0)
	regEdge(t, g, r, a, b, geom.Point2D{X: 100, Y: 50})

	if kindsAt(ix, geom.Point2D{X: 100, Y: 50})[KindCenterline] != 1 {
		t.Error("waypoint did not produce a centerline snap point")
	}
	// Path a -> waypoint -> b has two equal legs; the midpoint is the
	// waypoint itself.
	if kindsAt(ix, geom.Point2D{X: 100, Y: 50})[KindMidpoint] != 1 {
		t.Error("edge did not produce a midpoint snap point")
	}
}

func TestSyncEdgeIndexesCrossings(t *testing.T) {
	g := graph.New()
	ix := NewSpatialIndex()
	r := NewRegistry(g, ix)

	// Two disconnected runs crossing at the origin.
	a := regNode(t, g, r, -100, 0)
	b := regNode(t, g, r, 100, 0)
	c := regNode(t, g, r, 0, -100)
	d := regNode(t, g, r, 0, 100)
	e1 := regEdge(t, g, r, a, b)
	regEdge(t, g, r, c, d)

	if kindsAt(ix, geom.Point2D{})[KindIntersection] != 1 {
		t.Fatal("crossing edges did not produce an intersection point")
	}

	// Removing either edge clears the jointly owned crossing.
	g.RemoveEdge(e1)
	r.RemoveEntity(graph.EdgeRef(e1))
	if kindsAt(ix, geom.Point2D{})[KindIntersection] != 0 {
		t.Error("intersection survived removal of one of its edges")
	}
}

func TestSyncEdgeDropsCrossingsOfOldGeometry(t *testing.T) {
	g := graph.New()
	ix := NewSpatialIndex()
	r := NewRegistry(g, ix)

	// A detour over y=200 crosses a straight run at y=100 twice.
	a := regNode(t, g, r, 0, 0)
	b := regNode(t, g, r, 200, 0)
	c := regNode(t, g, r, 0, 100)
	d := regNode(t, g, r, 200, 100)
	detour := regEdge(t, g, r, a, b, geom.Point2D{X: 100, Y: 200})
	regEdge(t, g, r, c, d)

	if kindsAt(ix, geom.Point2D{X: 50, Y: 100})[KindIntersection] != 1 {
		t.Fatal("detour did not cross the straight run")
	}

	// Collapsing the detour to an arc along its chord removes both
	// crossings; the re-sync must not leave them behind.
	e := g.Edge(detour)
	e.Curve = graph.CurveArc
	e.Segmented = nil
	e.Arc = &graph.ArcControl{Radius: 300}
	r.SyncEdge(detour)

	for _, at := range []geom.Point2D{{X: 50, Y: 100}, {X: 150, Y: 100}} {
		if n := kindsAt(ix, at)[KindIntersection]; n != 0 {
			t.Errorf("stale intersection at %v after geometry change", at)
		}
	}
}

func TestEdgesSharingANodeDoNotCross(t *testing.T) {
	g := graph.New()
	ix := NewSpatialIndex()
	r := NewRegistry(g, ix)

	// An L through the origin: the corner is a junction, not a crossing.
	a := regNode(t, g, r, -100, 0)
	corner := regNode(t, g, r, 0, 0)
	b := regNode(t, g, r, 0, 100)
	regEdge(t, g, r, a, corner)
	regEdge(t, g, r, corner, b)

	kinds := kindsAt(ix, geom.Point2D{})
	if kinds[KindIntersection] != 0 {
		t.Error("junction between adjacent edges indexed as an intersection")
	}
	if kinds[KindEndpoint] != 1 {
		t.Error("corner node endpoint missing")
	}
}

func TestRegisterExternalReplaces(t *testing.T) {
	g := graph.New()
	ix := NewSpatialIndex()
	r := NewRegistry(g, ix)

	ref := graph.EntityRef{Kind: graph.EntityEquipment, ID: "ahu-1"}
	r.RegisterExternal(ref, []Point{
		pt("ahu-1:collar", 10, 0, KindEndpoint),
	})
	r.RegisterExternal(ref, []Point{
		pt("ahu-1:collar", 20, 0, KindEndpoint),
	})

	if kindsAt(ix, geom.Point2D{X: 10, Y: 0})[KindEndpoint] != 0 {
		t.Error("stale external point left after re-registration")
	}
	got := ix.QueryNear(geom.Point2D{X: 20, Y: 0}, 1)
	if len(got) != 1 {
		t.Fatalf("external point count = %d, want 1", len(got))
	}
	if got[0].Owner != ref {
		t.Errorf("owner = %v, want %v", got[0].Owner, ref)
	}
}

func TestRebuildAllMatchesIncrementalSync(t *testing.T) {
	g := graph.New()
	ix := NewSpatialIndex()
	r := NewRegistry(g, ix)

	a := regNode(t, g, r, 0, 0)
	b := regNode(t, g, r, 300, 0)
	c := regNode(t, g, r, 300, 300)
	regEdge(t, g, r, a, b, geom.Point2D{X: 150, Y: 20})
	regEdge(t, g, r, b, c)

	before := ix.Len()
	r.RebuildAll()
	if ix.Len() != before {
		t.Errorf("point count changed across RebuildAll: %d -> %d", before, ix.Len())
	}
}
