package session

import (
	"github.com/hvackit/ductline/pkg/graph"
)

// Command is a single undoable graph mutation. Apply and Revert are
// exact inverses; both panic on contract violations (missing IDs), so a
// command either lands fully or not at all and the graph is never left
// half-mutated by a user action.
type Command interface {
	Name() string
	Apply(g *graph.DuctGraph)
	Revert(g *graph.DuctGraph)
	// Touched lists the entities whose snap points must be
	// regenerated after Apply or Revert.
	Touched() []graph.EntityRef
}

// placeCmd adds an optional new node and an optional new edge in one
// step: one pencil placement, one command.
type placeCmd struct {
	node *graph.Node       // nil when snapping onto an existing node
	edge *graph.Centerline // nil for the first point of a polyline
}

func (c *placeCmd) Name() string { return "place-point" }

func (c *placeCmd) Apply(g *graph.DuctGraph) {
	if c.node != nil {
		n := *c.node
		g.AddNode(&n)
	}
	if c.edge != nil {
		g.AddEdge(c.edge.Clone())
	}
}

func (c *placeCmd) Revert(g *graph.DuctGraph) {
	if c.edge != nil {
		g.RemoveEdge(c.edge.ID)
	}
	if c.node != nil {
		g.RemoveNode(c.node.ID)
	}
}

func (c *placeCmd) Touched() []graph.EntityRef {
	var refs []graph.EntityRef
	if c.node != nil {
		refs = append(refs, graph.NodeRef(c.node.ID))
	}
	if c.edge != nil {
		refs = append(refs, graph.EdgeRef(c.edge.ID))
	}
	return refs
}

// deleteEdgeCmd removes an edge, retaining its full state for redo.
type deleteEdgeCmd struct {
	edge *graph.Centerline
}

func (c *deleteEdgeCmd) Name() string { return "delete-edge" }

func (c *deleteEdgeCmd) Apply(g *graph.DuctGraph) {
	g.RemoveEdge(c.edge.ID)
}

func (c *deleteEdgeCmd) Revert(g *graph.DuctGraph) {
	g.AddEdge(c.edge.Clone())
}

func (c *deleteEdgeCmd) Touched() []graph.EntityRef {
	return []graph.EntityRef{graph.EdgeRef(c.edge.ID)}
}

// toggleCurveCmd flips an edge between Arc and Segmented, preserving
// the control data of both representations so the toggle is lossless
// in either direction.
type toggleCurveCmd struct {
	edgeID graph.EdgeID
	before curveState
	after  curveState
}

type curveState struct {
	curve     graph.CurveType
	arc       *graph.ArcControl
	segmented *graph.SegmentedControl
}

func (c *toggleCurveCmd) Name() string { return "toggle-curve-type" }

func (c *toggleCurveCmd) Apply(g *graph.DuctGraph) {
	applyCurveState(g, c.edgeID, c.after)
}

func (c *toggleCurveCmd) Revert(g *graph.DuctGraph) {
	applyCurveState(g, c.edgeID, c.before)
}

func (c *toggleCurveCmd) Touched() []graph.EntityRef {
	return []graph.EntityRef{graph.EdgeRef(c.edgeID)}
}

func applyCurveState(g *graph.DuctGraph, id graph.EdgeID, s curveState) {
	e := g.Edge(id)
	if e == nil {
		panic("session: toggle-curve-type on missing edge " + id.Short())
	}
	e.Curve = s.curve
	e.Arc = s.arc
	e.Segmented = s.segmented
	g.Version++
}

// branchCmd splits a target edge at an insertion point, introducing a
// junction node and two replacement edges. Built from a confirmed
// BranchProposal; the proposal itself never mutates anything.
type branchCmd struct {
	removed *graph.Centerline
	node    *graph.Node
	left    *graph.Centerline
	right   *graph.Centerline
}

func (c *branchCmd) Name() string { return "insert-branch" }

func (c *branchCmd) Apply(g *graph.DuctGraph) {
	g.RemoveEdge(c.removed.ID)
	n := *c.node
	g.AddNode(&n)
	g.AddEdge(c.left.Clone())
	g.AddEdge(c.right.Clone())
}

func (c *branchCmd) Revert(g *graph.DuctGraph) {
	g.RemoveEdge(c.left.ID)
	g.RemoveEdge(c.right.ID)
	g.RemoveNode(c.node.ID)
	g.AddEdge(c.removed.Clone())
}

func (c *branchCmd) Touched() []graph.EntityRef {
	return []graph.EntityRef{
		graph.EdgeRef(c.removed.ID),
		graph.NodeRef(c.node.ID),
		graph.EdgeRef(c.left.ID),
		graph.EdgeRef(c.right.ID),
	}
}
