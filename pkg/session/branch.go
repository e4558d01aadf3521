package session

import (
	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
	"github.com/hvackit/ductline/pkg/snap"
)

// BranchConfig tunes branch-opportunity detection.
type BranchConfig struct {
	// MinSpacing is the radius, in world units, within which a hovered
	// centerline point counts as adjacent to an existing node.
	MinSpacing float64
	// ClusterRadius bounds the search for other edges terminating near
	// the insertion point when suggesting a multi-way fitting.
	ClusterRadius float64
}

// DefaultBranchConfig returns the default detection tuning.
func DefaultBranchConfig() BranchConfig {
	return BranchConfig{MinSpacing: 50, ClusterRadius: 50}
}

// BranchProposal describes a mid-span fitting insertion opportunity.
// Proposals are inert: nothing is applied until the caller confirms via
// Machine.ApplyBranch.
type BranchProposal struct {
	TargetEdge     graph.EdgeID
	InsertionPoint geom.Point2D
	// Fitting is the suggested family for the junction the split would
	// create (tee/wye for a simple branch, cross or multi-way when
	// other edges already terminate nearby).
	Fitting graph.FittingHint
}

// BranchEngine detects mid-span branch opportunities. It never mutates
// the graph; it only returns proposals.
type BranchEngine struct {
	cfg BranchConfig
}

// NewBranchEngine creates a branch engine.
func NewBranchEngine(cfg BranchConfig) *BranchEngine {
	if cfg.MinSpacing <= 0 {
		cfg.MinSpacing = DefaultBranchConfig().MinSpacing
	}
	if cfg.ClusterRadius <= 0 {
		cfg.ClusterRadius = DefaultBranchConfig().ClusterRadius
	}
	return &BranchEngine{cfg: cfg}
}

// ProposeBranch evaluates a hovered snap result for a branch insertion
// opportunity. It returns nil unless the hover is an Intersection, or a
// CenterlinePoint within the minimum spacing of an existing node, with
// the branch-intent modifier active.
func (e *BranchEngine) ProposeBranch(g *graph.DuctGraph, hover snap.Result, mods snap.Modifiers) *BranchProposal {
	if !mods.BranchIntent || hover.Status != snap.StatusSnapped {
		return nil
	}
	pt := hover.Point

	switch pt.Kind {
	case snap.KindIntersection:
		// Always a branch opportunity.
	case snap.KindCenterline:
		if !e.nearExistingNode(g, pt.Position) {
			return nil
		}
	default:
		return nil
	}

	if pt.Owner.Kind != graph.EntityEdge {
		return nil
	}
	target := graph.EdgeID(pt.Owner.ID)
	if g.Edge(target) == nil {
		return nil
	}

	return &BranchProposal{
		TargetEdge:     target,
		InsertionPoint: pt.Position,
		Fitting:        e.suggestFitting(g, target, pt.Position),
	}
}

// nearExistingNode reports whether any node lies within MinSpacing of p.
func (e *BranchEngine) nearExistingNode(g *graph.DuctGraph, p geom.Point2D) bool {
	for _, id := range g.NodeIDs() {
		if g.Node(id).Position.Dist(p) <= e.cfg.MinSpacing {
			return true
		}
	}
	return false
}

// suggestFitting counts edges other than the target that terminate near
// the insertion point. The split itself yields a 3-way junction; each
// nearby terminating edge raises the suggested family by one way.
func (e *BranchEngine) suggestFitting(g *graph.DuctGraph, target graph.EdgeID, p geom.Point2D) graph.FittingHint {
	nearby := 0
	for _, id := range g.EdgeIDs() {
		if id == target {
			continue
		}
		c := g.Edge(id)
		if g.Node(c.A).Position.Dist(p) <= e.cfg.ClusterRadius ||
			g.Node(c.B).Position.Dist(p) <= e.cfg.ClusterRadius {
			nearby++
		}
	}
	switch {
	case nearby == 0:
		return graph.FittingTee
	case nearby == 1:
		return graph.FittingCross
	default:
		return graph.FittingMultiWay
	}
}

// ApplyBranch is the explicit confirmation step for a proposal: it
// splits the target edge at the insertion point as one undoable
// command and returns the new junction node. Panics if the target edge
// no longer exists (the proposal is stale).
func (m *Machine) ApplyBranch(p *BranchProposal) graph.NodeID {
	target := m.g.Edge(p.TargetEdge)
	if target == nil {
		panic("session: ApplyBranch on missing edge " + p.TargetEdge.Short())
	}

	nodeID := graph.NewNodeID()
	node := &graph.Node{ID: nodeID, Position: p.InsertionPoint}

	left, right := splitEdge(m.g, target, p.InsertionPoint, nodeID)

	m.push(&branchCmd{
		removed: target.Clone(),
		node:    node,
		left:    left,
		right:   right,
	})
	if m.lastEdge == p.TargetEdge {
		m.lastEdge = ""
	}
	return nodeID
}

// splitEdge partitions an edge's path at the point nearest to split,
// producing the two replacement centerlines. Arc edges split into
// segmented halves along the chord; size and shape carry over.
func splitEdge(g *graph.DuctGraph, target *graph.Centerline, split geom.Point2D, at graph.NodeID) (left, right *graph.Centerline) {
	path := g.EdgePath(target.ID)

	// Locate the sub-segment closest to the split point.
	bestLeg, bestDist := 1, -1.0
	for i := 1; i < len(path); i++ {
		pt, _ := geom.ClosestOnSegment(split, path[i-1], path[i])
		if d := pt.Dist(split); bestDist < 0 || d < bestDist {
			bestLeg, bestDist = i, d
		}
	}

	leftWps := append([]geom.Point2D(nil), path[1:bestLeg]...)
	rightWps := append([]geom.Point2D(nil), path[bestLeg:len(path)-1]...)

	left = &graph.Centerline{
		ID:        graph.NewEdgeID(),
		A:         target.A,
		B:         at,
		Curve:     graph.CurveSegmented,
		Shape:     target.Shape,
		Size:      target.Size,
		Segmented: &graph.SegmentedControl{Waypoints: leftWps},
	}
	right = &graph.Centerline{
		ID:        graph.NewEdgeID(),
		A:         at,
		B:         target.B,
		Curve:     graph.CurveSegmented,
		Shape:     target.Shape,
		Size:      target.Size,
		Segmented: &graph.SegmentedControl{Waypoints: rightWps},
	}
	return left, right
}
