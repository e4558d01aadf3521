package convert

import (
	"context"
	"errors"
	"testing"

	"github.com/hvackit/ductline/pkg/compliance"
	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
	"github.com/hvackit/ductline/pkg/kernel/sdfx"
)

func newConverter() *Converter {
	return NewConverter(sdfx.New(0), compliance.NewRadiusValidator(compliance.DefaultRadiusTable()))
}

// addNode and addEdge keep the test graphs terse.
func addNode(g *graph.DuctGraph, x, y float64, terminal bool) graph.NodeID {
	id := graph.NewNodeID()
	g.AddNode(&graph.Node{ID: id, Position: geom.Point2D{X: x, Y: y}, Terminal: terminal})
	return id
}

func addEdge(g *graph.DuctGraph, a, b graph.NodeID) graph.EdgeID {
	id := graph.NewEdgeID()
	g.AddEdge(&graph.Centerline{
		ID:        id,
		A:         a,
		B:         b,
		Curve:     graph.CurveSegmented,
		Shape:     graph.ShapeRound,
		Size:      graph.DuctSize{Diameter: 200},
		Segmented: &graph.SegmentedControl{},
	})
	return id
}

func TestBuildRightAngleEmitsOneElbow(t *testing.T) {
	g := graph.New()
	a := addNode(g, 0, 0, true)
	corner := addNode(g, 1000, 0, false)
	b := addNode(g, 1000, 1000, true)
	addEdge(g, a, corner)
	addEdge(g, corner, b)

	res, err := newConverter().Build(context.Background(), g, DefaultBuildParams())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(res.Solids) != 2 {
		t.Errorf("solids = %d, want 2", len(res.Solids))
	}
	if len(res.Fittings) != 1 {
		t.Fatalf("fittings = %d, want 1", len(res.Fittings))
	}
	f := res.Fittings[0]
	if f.NodeID != corner {
		t.Errorf("fitting at node %s, want %s", f.NodeID.Short(), corner.Short())
	}
	if f.Kind != graph.FittingElbow {
		t.Errorf("fitting kind = %s, want elbow", f.Kind)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v, want none", res.Diagnostics)
	}
}

func TestBuildOpenEndDiagnostic(t *testing.T) {
	g := graph.New()
	a := addNode(g, 0, 0, true)
	open := addNode(g, 500, 0, false)
	addEdge(g, a, open)

	res, err := newConverter().Build(context.Background(), g, DefaultBuildParams())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var openEnds []Diagnostic
	for _, d := range res.Diagnostics {
		if d.Kind == OpenEnd {
			openEnds = append(openEnds, d)
		}
	}
	if len(openEnds) != 1 {
		t.Fatalf("open-end diagnostics = %d, want 1", len(openEnds))
	}
	if openEnds[0].NodeID != open {
		t.Errorf("open end names node %s, want %s", openEnds[0].NodeID.Short(), open.Short())
	}
	// Bend-radius citations do not apply to structural findings.
	if ref := openEnds[0].CodeReference; ref != "" {
		t.Errorf("open end cites %q, want no citation", ref)
	}
}

func TestBuildArcRadiusViolation(t *testing.T) {
	g := graph.New()
	a := addNode(g, 0, 0, true)
	b := addNode(g, 1000, 0, true)
	id := graph.NewEdgeID()
	g.AddEdge(&graph.Centerline{
		ID:    id,
		A:     a,
		B:     b,
		Curve: graph.CurveArc,
		Shape: graph.ShapeRound,
		Size:  graph.DuctSize{Diameter: 400},
		// Minimum for a 400 diameter is 600.
		Arc: &graph.ArcControl{Radius: 550},
	})

	res, err := newConverter().Build(context.Background(), g, DefaultBuildParams())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	found := false
	for _, d := range res.Diagnostics {
		if d.Kind == ArcRadiusViolation {
			found = true
			if len(d.EdgeIDs) != 1 || d.EdgeIDs[0] != id {
				t.Errorf("violation names edges %v, want [%s]", d.EdgeIDs, id.Short())
			}
			if d.CodeReference == "" {
				t.Error("violation has no code reference with a working validator")
			}
		}
	}
	if !found {
		t.Fatal("no arc-radius-violation diagnostic emitted")
	}
}

// brokenValidator always fails, standing in for an unreachable
// standards service.
type brokenValidator struct{}

func (brokenValidator) Validate(context.Context, compliance.Subject) (compliance.Outcome, error) {
	return compliance.Outcome{}, errors.New("standards service unreachable")
}

func TestBuildValidatorUnavailableDegradesGracefully(t *testing.T) {
	g := graph.New()
	a := addNode(g, 0, 0, true)
	open := addNode(g, 500, 0, false)
	addEdge(g, a, open)

	conv := NewConverter(sdfx.New(0), brokenValidator{})
	res, err := conv.Build(context.Background(), g, DefaultBuildParams())
	if err != nil {
		t.Fatalf("Build() error = %v, build must succeed without the validator", err)
	}
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected the open-end diagnostic even without a validator")
	}
	for _, d := range res.Diagnostics {
		if d.CodeReference != "" {
			t.Errorf("diagnostic %s carries a citation from a broken validator", d.Kind)
		}
	}
}

func TestBuildIdempotent(t *testing.T) {
	g := graph.New()
	a := addNode(g, 0, 0, true)
	corner := addNode(g, 1000, 0, false)
	open := addNode(g, 1000, 800, false)
	addEdge(g, a, corner)
	addEdge(g, corner, open)

	conv := newConverter()
	params := DefaultBuildParams()

	first, err := conv.Build(context.Background(), g, params)
	if err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	second, err := conv.Build(context.Background(), g, params)
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}

	if len(first.Solids) != len(second.Solids) {
		t.Errorf("solid counts differ: %d vs %d", len(first.Solids), len(second.Solids))
	}
	if len(first.Fittings) != len(second.Fittings) {
		t.Errorf("fitting counts differ: %d vs %d", len(first.Fittings), len(second.Fittings))
	}
	if len(first.Diagnostics) != len(second.Diagnostics) {
		t.Fatalf("diagnostic counts differ: %d vs %d", len(first.Diagnostics), len(second.Diagnostics))
	}
	for i := range first.Diagnostics {
		fd, sd := first.Diagnostics[i], second.Diagnostics[i]
		if fd.Kind != sd.Kind || fd.NodeID != sd.NodeID || fd.Message != sd.Message {
			t.Errorf("diagnostic %d differs: %+v vs %+v", i, fd, sd)
		}
	}
}

func TestBuildOverlapDiagnostic(t *testing.T) {
	g := graph.New()
	// Two disconnected runs crossing at right angles share volume but
	// no node.
	a := addNode(g, -500, 0, true)
	b := addNode(g, 500, 0, true)
	c := addNode(g, 0, -500, true)
	d := addNode(g, 0, 500, true)
	addEdge(g, a, b)
	addEdge(g, c, d)

	res, err := newConverter().Build(context.Background(), g, DefaultBuildParams())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	found := false
	for _, diag := range res.Diagnostics {
		if diag.Kind == Overlap {
			found = true
			if len(diag.EdgeIDs) != 2 {
				t.Errorf("overlap names %d edges, want 2", len(diag.EdgeIDs))
			}
			if diag.CodeReference != "" {
				t.Errorf("overlap cites %q, want no citation", diag.CodeReference)
			}
		}
	}
	if !found {
		t.Fatal("crossing runs produced no overlap diagnostic")
	}
}

func TestBuildAdjacentEdgesDoNotOverlap(t *testing.T) {
	g := graph.New()
	a := addNode(g, 0, 0, true)
	corner := addNode(g, 1000, 0, false)
	b := addNode(g, 1000, 1000, true)
	addEdge(g, a, corner)
	addEdge(g, corner, b)

	res, err := newConverter().Build(context.Background(), g, DefaultBuildParams())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, d := range res.Diagnostics {
		if d.Kind == Overlap {
			t.Fatalf("edges sharing a node flagged as overlap: %v", d)
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	g := graph.New()
	a := addNode(g, 0, 0, true)
	b := addNode(g, 500, 0, true)
	addEdge(g, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newConverter().Build(ctx, g, DefaultBuildParams()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Build() error = %v, want context.Canceled", err)
	}
}
