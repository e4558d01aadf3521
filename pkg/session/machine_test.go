package session

import (
	"math"
	"testing"

	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
	"github.com/hvackit/ductline/pkg/snap"
)

// newTestMachine builds a session over the given graph with free-draw
// enabled, so tests can place points on an empty canvas.
func newTestMachine(g *graph.DuctGraph) *Machine {
	idx := snap.NewSpatialIndex()
	registry := snap.NewRegistry(g, idx)
	resolver := snap.NewResolver(idx, snap.DefaultConfig())
	cfg := DefaultConfig()
	cfg.FreeDraw = true
	return NewMachine(g, registry, resolver, cfg)
}

func place(t *testing.T, m *Machine, x, y float64) PlaceResult {
	t.Helper()
	res := m.PlacePoint(geom.Point2D{X: x, Y: y}, snap.Modifiers{})
	if res.Status != Placed {
		t.Fatalf("placement at (%g, %g) rejected: %s", x, y, res.Status)
	}
	return res
}

func TestPlacePointRequiresPencil(t *testing.T) {
	m := newTestMachine(graph.New())
	if res := m.PlacePoint(geom.Point2D{}, snap.Modifiers{}); res.Status != NotDrawing {
		t.Errorf("status = %s, want not-drawing", res.Status)
	}
}

func TestNoSnapTargetIsANoOp(t *testing.T) {
	g := graph.New()
	idx := snap.NewSpatialIndex()
	registry := snap.NewRegistry(g, idx)
	resolver := snap.NewResolver(idx, snap.DefaultConfig())
	m := NewMachine(g, registry, resolver, DefaultConfig()) // free-draw off

	m.ActivatePencil()
	res := m.PlacePoint(geom.Point2D{}, snap.Modifiers{})
	if res.Status != NoSnapTarget {
		t.Fatalf("status = %s, want no-snap-target", res.Status)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Error("rejected placement mutated the graph")
	}
	if m.State() != StateDrawing {
		t.Error("rejected placement ended the drawing state")
	}
}

func TestPolylinePlacement(t *testing.T) {
	g := graph.New()
	m := newTestMachine(g)

	m.ActivatePencil()
	first := place(t, m, 0, 0)
	if !first.EdgeID.IsZero() {
		t.Error("first vertex produced an edge")
	}
	second := place(t, m, 1000, 0)
	if second.EdgeID.IsZero() {
		t.Error("second vertex did not produce an edge")
	}
	place(t, m, 1000, 1000)
	m.DeactivatePencil()

	if len(g.Nodes) != 3 || len(g.Edges) != 2 {
		t.Errorf("graph has %d nodes, %d edges; want 3, 2", len(g.Nodes), len(g.Edges))
	}
	// A right-angle turn is too sharp for arc synthesis.
	for _, id := range g.EdgeIDs() {
		if g.Edge(id).Curve != graph.CurveSegmented {
			t.Errorf("edge %s curve = %s, want segmented", id.Short(), g.Edge(id).Curve)
		}
	}
}

func TestUndoRedoAreExactInverses(t *testing.T) {
	g := graph.New()
	m := newTestMachine(g)

	snapshots := []*graph.DuctGraph{g.Clone()}
	m.ActivatePencil()
	for _, p := range []geom.Point2D{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1000}} {
		place(t, m, p.X, p.Y)
		snapshots = append(snapshots, g.Clone())
	}
	m.DeactivatePencil()

	// Each placement is exactly one command.
	for i := len(snapshots) - 2; i >= 0; i-- {
		if !m.Undo() {
			t.Fatal("Undo returned false with history remaining")
		}
		if !graph.Equal(g, snapshots[i]) {
			t.Fatalf("undo to step %d did not restore the snapshot", i)
		}
	}
	if m.Undo() {
		t.Error("Undo on an empty stack returned true")
	}
	for i := 1; i < len(snapshots); i++ {
		if !m.Redo() {
			t.Fatal("Redo returned false with history remaining")
		}
		if !graph.Equal(g, snapshots[i]) {
			t.Fatalf("redo to step %d did not restore the snapshot", i)
		}
	}
	if m.Redo() {
		t.Error("Redo with nothing undone returned true")
	}
}

func TestSnapOntoExistingNodeReusesIt(t *testing.T) {
	g := graph.New()
	m := newTestMachine(g)

	m.ActivatePencil()
	start := place(t, m, 0, 0)
	place(t, m, 1000, 0)
	m.DeactivatePencil()

	// A new stroke beginning within snap tolerance of the first node
	// must reuse it rather than create a coincident twin.
	m.ActivatePencil()
	res := place(t, m, 2, 0)
	if res.NodeID != start.NodeID {
		t.Fatalf("snapped placement created node %s, want reuse of %s",
			res.NodeID.Short(), start.NodeID.Short())
	}
	place(t, m, 0, 800)
	m.DeactivatePencil()

	if len(g.Nodes) != 3 {
		t.Errorf("graph has %d nodes, want 3", len(g.Nodes))
	}
	if got := g.Degree(start.NodeID); got != 2 {
		t.Errorf("degree of reused node = %d, want 2", got)
	}
}

func TestShallowTurnSynthesizesArc(t *testing.T) {
	g := graph.New()
	m := newTestMachine(g)

	m.ActivatePencil()
	place(t, m, 0, 0)
	place(t, m, 1000, 0)
	// About 17 degrees of turn, well under the 45 degree threshold.
	res := place(t, m, 2000, 300)
	m.DeactivatePencil()

	e := g.Edge(res.EdgeID)
	if e.Curve != graph.CurveArc {
		t.Fatalf("shallow turn edge curve = %s, want arc", e.Curve)
	}
	wantRadius := 1.5 * DefaultConfig().DefaultSize.Diameter
	if math.Abs(e.Arc.Radius-wantRadius) > geom.Eps {
		t.Errorf("synthesized radius = %g, want %g", e.Arc.Radius, wantRadius)
	}
}

func TestRectDuctNeverSynthesizesArcs(t *testing.T) {
	g := graph.New()
	idx := snap.NewSpatialIndex()
	registry := snap.NewRegistry(g, idx)
	resolver := snap.NewResolver(idx, snap.DefaultConfig())
	cfg := DefaultConfig()
	cfg.FreeDraw = true
	cfg.DefaultShape = graph.ShapeRect
	cfg.DefaultSize = graph.DuctSize{Width: 400, Height: 200}
	m := NewMachine(g, registry, resolver, cfg)

	m.ActivatePencil()
	place(t, m, 0, 0)
	place(t, m, 1000, 0)
	res := place(t, m, 2000, 300)
	m.DeactivatePencil()

	if g.Edge(res.EdgeID).Curve != graph.CurveSegmented {
		t.Error("rectangular duct synthesized an arc")
	}
}

func TestToggleCurveType(t *testing.T) {
	g := graph.New()
	m := newTestMachine(g)

	m.ActivatePencil()
	place(t, m, 0, 0)
	res := place(t, m, 1000, 0)
	m.DeactivatePencil()

	before := g.Clone()

	m.ToggleCurveType(res.EdgeID)
	e := g.Edge(res.EdgeID)
	if e.Curve != graph.CurveArc || e.Arc == nil {
		t.Fatalf("toggle did not convert to arc: curve = %s", e.Curve)
	}
	wantRadius := 1.5 * e.Size.Span(e.Shape)
	if math.Abs(e.Arc.Radius-wantRadius) > geom.Eps {
		t.Errorf("toggle radius = %g, want %g", e.Arc.Radius, wantRadius)
	}

	m.ToggleCurveType(res.EdgeID)
	if g.Edge(res.EdgeID).Curve != graph.CurveSegmented {
		t.Error("second toggle did not convert back to segmented")
	}

	// Both toggles undo losslessly.
	m.Undo()
	m.Undo()
	if !graph.Equal(g, before) {
		t.Error("undoing both toggles did not restore the original edge")
	}
}

func TestToggleCurveTypeClearsStaleCrossings(t *testing.T) {
	g := graph.New()
	a := graph.NewNodeID()
	b := graph.NewNodeID()
	c := graph.NewNodeID()
	d := graph.NewNodeID()
	g.AddNode(&graph.Node{ID: a, Position: geom.Point2D{X: 0, Y: 0}})
	g.AddNode(&graph.Node{ID: b, Position: geom.Point2D{X: 200, Y: 0}})
	g.AddNode(&graph.Node{ID: c, Position: geom.Point2D{X: 0, Y: 100}})
	g.AddNode(&graph.Node{ID: d, Position: geom.Point2D{X: 200, Y: 100}})
	detour := graph.NewEdgeID()
	g.AddEdge(&graph.Centerline{
		ID:    detour,
		A:     a,
		B:     b,
		Curve: graph.CurveSegmented,
		Shape: graph.ShapeRound,
		Size:  graph.DuctSize{Diameter: 200},
		// Detours over y=200, crossing the c-d run at y=100 twice.
		Segmented: &graph.SegmentedControl{Waypoints: []geom.Point2D{{X: 100, Y: 200}}},
	})
	g.AddEdge(&graph.Centerline{
		ID:        graph.NewEdgeID(),
		A:         c,
		B:         d,
		Curve:     graph.CurveSegmented,
		Shape:     graph.ShapeRound,
		Size:      graph.DuctSize{Diameter: 200},
		Segmented: &graph.SegmentedControl{},
	})

	idx := snap.NewSpatialIndex()
	registry := snap.NewRegistry(g, idx)
	resolver := snap.NewResolver(idx, snap.DefaultConfig())
	m := NewMachine(g, registry, resolver, DefaultConfig())

	crossing := geom.Point2D{X: 50, Y: 100}
	if len(idx.QueryNear(crossing, 5)) == 0 {
		t.Fatal("detour crossing not indexed after rebuild")
	}

	// Converting the detour to an arc collapses its path to the chord
	// along y=0; the crossings at y=100 must leave the index with it.
	m.ToggleCurveType(detour)
	for _, pt := range idx.QueryNear(crossing, 5) {
		if pt.Kind == snap.KindIntersection {
			t.Errorf("stale intersection %v survived the curve toggle", pt)
		}
	}
}

func TestAmbiguousSnapDisambiguation(t *testing.T) {
	g := graph.New()
	// Two pre-existing nodes equidistant from the cursor.
	left := graph.NewNodeID()
	right := graph.NewNodeID()
	g.AddNode(&graph.Node{ID: left, Position: geom.Point2D{X: -5, Y: 0}})
	g.AddNode(&graph.Node{ID: right, Position: geom.Point2D{X: 5, Y: 0}})
	m := newTestMachine(g)

	m.ActivatePencil()
	res := m.PlacePoint(geom.Point2D{}, snap.Modifiers{})
	if res.Status != AmbiguousSnap {
		t.Fatalf("status = %s, want ambiguous-snap", res.Status)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(res.Candidates))
	}
	if len(g.Nodes) != 2 {
		t.Error("ambiguous snap mutated the graph")
	}

	chosen := m.PlaceCandidate(res.Candidates[0])
	if chosen.Status != Placed {
		t.Fatalf("PlaceCandidate status = %s, want placed", chosen.Status)
	}
	if len(g.Nodes) != 2 {
		t.Error("disambiguated placement created a new node")
	}
}

func TestDeleteEdgeUndoable(t *testing.T) {
	g := graph.New()
	m := newTestMachine(g)

	m.ActivatePencil()
	place(t, m, 0, 0)
	res := place(t, m, 1000, 0)
	m.DeactivatePencil()

	before := g.Clone()
	m.DeleteEdge(res.EdgeID)
	if g.Edge(res.EdgeID) != nil {
		t.Fatal("edge still present after delete")
	}
	m.Undo()
	if !graph.Equal(g, before) {
		t.Error("undo did not restore the deleted edge")
	}
}
