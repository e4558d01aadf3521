// Package session owns the user-facing drawing session: the pencil
// state machine, the undo/redo command stack over the duct graph, and
// the branch-insertion proposal flow. All mutations happen on one
// logical thread (the input thread); nothing here blocks on I/O.
package session

import (
	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
	"github.com/hvackit/ductline/pkg/snap"
)

// State is the pencil-tool state.
type State int

const (
	StateIdle State = iota
	StateDrawing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// Config holds drawing-session tuning. Threshold values are
// deployment-defined.
type Config struct {
	// ArcTurnThresholdDeg is the maximum turn angle, in degrees, at
	// which consecutive round-duct segments are joined by a synthesized
	// Arc centerline instead of a hard segmented corner.
	ArcTurnThresholdDeg float64
	// MinRadiusRatio is the SMACNA minimum centerline-radius to
	// duct-span ratio used for synthesized arc radii.
	MinRadiusRatio float64
	// FreeDraw permits placing points with no snap candidate under the
	// cursor. Off by default: a missed snap rejects the placement.
	FreeDraw bool
	// DefaultShape and DefaultSize are bound to newly drawn edges.
	DefaultShape graph.DuctShape
	DefaultSize  graph.DuctSize
}

// DefaultConfig returns the default session tuning.
func DefaultConfig() Config {
	return Config{
		ArcTurnThresholdDeg: 45,
		MinRadiusRatio:      1.5,
		DefaultShape:        graph.ShapeRound,
		DefaultSize:         graph.DuctSize{Diameter: 200},
	}
}

// PlaceStatus reports the outcome of a PlacePoint call.
type PlaceStatus int

const (
	// Placed: the point was committed to the graph.
	Placed PlaceStatus = iota
	// NoSnapTarget: no candidate within tolerance and free-draw is
	// disabled. The call was a no-op; drawing continues.
	NoSnapTarget
	// AmbiguousSnap: a snap tie; the caller must disambiguate and call
	// PlaceCandidate with the chosen point.
	AmbiguousSnap
	// NotDrawing: the pencil tool is not active.
	NotDrawing
)

func (s PlaceStatus) String() string {
	switch s {
	case Placed:
		return "placed"
	case NoSnapTarget:
		return "no-snap-target"
	case AmbiguousSnap:
		return "ambiguous-snap"
	case NotDrawing:
		return "not-drawing"
	default:
		return "unknown"
	}
}

// PlaceResult is the outcome of a placement attempt.
type PlaceResult struct {
	Status     PlaceStatus
	NodeID     graph.NodeID // the placed or reused node, when Placed
	EdgeID     graph.EdgeID // the new edge, when one was drawn
	Candidates []snap.Point // tied candidates, when AmbiguousSnap
}

// Machine is the drawing state machine. It owns the live graph and the
// undo/redo stack, and keeps the snap registry synchronized with every
// mutation.
type Machine struct {
	cfg Config

	g        *graph.DuctGraph
	registry *snap.Registry
	resolver *snap.Resolver

	state State

	// Open polyline tracking.
	lastNode graph.NodeID
	lastEdge graph.EdgeID
	lastKind *snap.Kind

	undo []Command
	redo []Command
}

// NewMachine creates a drawing session over the given graph. The
// registry is rebuilt so the index reflects the graph as loaded.
func NewMachine(g *graph.DuctGraph, registry *snap.Registry, resolver *snap.Resolver, cfg Config) *Machine {
	if cfg.ArcTurnThresholdDeg <= 0 {
		cfg.ArcTurnThresholdDeg = DefaultConfig().ArcTurnThresholdDeg
	}
	if cfg.MinRadiusRatio <= 0 {
		cfg.MinRadiusRatio = DefaultConfig().MinRadiusRatio
	}
	if cfg.DefaultSize == (graph.DuctSize{}) {
		cfg.DefaultShape = DefaultConfig().DefaultShape
		cfg.DefaultSize = DefaultConfig().DefaultSize
	}
	registry.RebuildAll()
	return &Machine{
		cfg:      cfg,
		g:        g,
		registry: registry,
		resolver: resolver,
	}
}

// Graph returns the live graph. Callers outside the session thread must
// not mutate it; background builds take a Clone.
func (m *Machine) Graph() *graph.DuctGraph { return m.g }

// State returns the current pencil state.
func (m *Machine) State() State { return m.state }

// ActivatePencil transitions Idle -> Drawing. A no-op when already
// drawing.
func (m *Machine) ActivatePencil() {
	if m.state == StateIdle {
		m.state = StateDrawing
		m.clearStroke()
	}
}

// DeactivatePencil closes (not discards) the open polyline and returns
// to Idle. Escape is an alias.
func (m *Machine) DeactivatePencil() {
	m.state = StateIdle
	m.clearStroke()
}

// Escape behaves exactly like DeactivatePencil.
func (m *Machine) Escape() { m.DeactivatePencil() }

func (m *Machine) clearStroke() {
	m.lastNode = graph.ZeroNodeID
	m.lastEdge = ""
	m.lastKind = nil
}

// PlacePoint resolves a snap for the cursor and commits the next vertex
// of the open polyline. Exactly one command is pushed per successful
// placement. A missing snap target (with free-draw off) or an ambiguous
// snap rejects the placement without touching the graph.
func (m *Machine) PlacePoint(cursor geom.Point2D, mods snap.Modifiers) PlaceResult {
	if m.state != StateDrawing {
		return PlaceResult{Status: NotDrawing}
	}

	res := m.resolver.Resolve(cursor, mods, m.lastKind)
	switch res.Status {
	case snap.StatusNone:
		if !m.cfg.FreeDraw {
			return PlaceResult{Status: NoSnapTarget}
		}
		return m.commitVertex(cursor, nil)
	case snap.StatusAmbiguous:
		return PlaceResult{Status: AmbiguousSnap, Candidates: res.Candidates}
	default:
		pt := res.Point
		return m.commitVertex(pt.Position, &pt)
	}
}

// PlaceCandidate commits a placement at an explicitly chosen candidate,
// the second half of the disambiguation affordance for AmbiguousSnap.
func (m *Machine) PlaceCandidate(pt snap.Point) PlaceResult {
	if m.state != StateDrawing {
		return PlaceResult{Status: NotDrawing}
	}
	return m.commitVertex(pt.Position, &pt)
}

// commitVertex creates (or reuses) the node at pos, draws the edge from
// the previous vertex when one exists, and pushes the command.
func (m *Machine) commitVertex(pos geom.Point2D, snapped *snap.Point) PlaceResult {
	cmd := &placeCmd{}

	nodeID := m.reuseNode(snapped)
	if nodeID.IsZero() {
		nodeID = graph.NewNodeID()
		cmd.node = &graph.Node{ID: nodeID, Position: pos}
	}

	if !m.lastNode.IsZero() && m.lastNode != nodeID {
		cmd.edge = m.newEdge(m.lastNode, nodeID, pos)
	}

	if cmd.node == nil && cmd.edge == nil {
		// Reused an existing node with nothing to draw yet; the stroke
		// continues from it.
		m.lastNode = nodeID
		if snapped != nil {
			k := snapped.Kind
			m.lastKind = &k
		}
		return PlaceResult{Status: Placed, NodeID: nodeID}
	}

	m.push(cmd)

	m.lastNode = nodeID
	if cmd.edge != nil {
		m.lastEdge = cmd.edge.ID
	}
	if snapped != nil {
		k := snapped.Kind
		m.lastKind = &k
	}

	out := PlaceResult{Status: Placed, NodeID: nodeID}
	if cmd.edge != nil {
		out.EdgeID = cmd.edge.ID
	}
	return out
}

// reuseNode returns the existing node a snap landed on, if any.
func (m *Machine) reuseNode(snapped *snap.Point) graph.NodeID {
	if snapped == nil || snapped.Kind != snap.KindEndpoint || snapped.Owner.Kind != graph.EntityNode {
		return graph.ZeroNodeID
	}
	id := graph.NodeID(snapped.Owner.ID)
	if m.g.Node(id) == nil {
		return graph.ZeroNodeID
	}
	return id
}

// newEdge builds the centerline from the previous vertex to the new
// one. When the turn at the previous vertex is shallow (below the
// configured threshold) and the run is round duct, an Arc centerline
// with the SMACNA default radius is synthesized; otherwise the edge is
// segmented. The caller may toggle the type per edge afterward.
func (m *Machine) newEdge(from, to graph.NodeID, toPos geom.Point2D) *graph.Centerline {
	edge := &graph.Centerline{
		ID:        graph.NewEdgeID(),
		A:         from,
		B:         to,
		Curve:     graph.CurveSegmented,
		Shape:     m.cfg.DefaultShape,
		Size:      m.cfg.DefaultSize,
		Segmented: &graph.SegmentedControl{},
	}

	if m.cfg.DefaultShape == graph.ShapeRound && !m.lastEdge.IsZero() && m.g.Edge(m.lastEdge) != nil {
		back := m.g.EdgeDirection(m.lastEdge, from) // points back along the previous edge
		incoming := back.Scale(-1)
		outgoing := toPos.Sub(m.g.Node(from).Position)
		// Deviation between the incoming and outgoing directions.
		turn := geom.Degrees(geom.IncludedAngle(geom.Point2D{}, incoming, outgoing))
		if turn > 0 && turn <= m.cfg.ArcTurnThresholdDeg {
			edge.Curve = graph.CurveArc
			edge.Segmented = nil
			edge.Arc = &graph.ArcControl{
				Radius: m.cfg.MinRadiusRatio * m.cfg.DefaultSize.Span(m.cfg.DefaultShape),
			}
		}
	}
	return edge
}

// DeleteEdge removes an edge as one undoable command.
func (m *Machine) DeleteEdge(id graph.EdgeID) {
	e := m.g.Edge(id)
	if e == nil {
		panic("session: DeleteEdge of missing edge " + id.Short())
	}
	m.push(&deleteEdgeCmd{edge: e.Clone()})
	if m.lastEdge == id {
		m.clearStroke()
	}
}

// ToggleCurveType flips an edge between Arc and Segmented as one
// undoable command. A synthesized Arc converted to Segmented keeps the
// chord; a Segmented edge without waypoints converts to an Arc with the
// SMACNA default radius.
func (m *Machine) ToggleCurveType(id graph.EdgeID) {
	e := m.g.Edge(id)
	if e == nil {
		panic("session: ToggleCurveType of missing edge " + id.Short())
	}
	before := curveState{curve: e.Curve, arc: e.Arc, segmented: e.Segmented}
	var after curveState
	if e.Curve == graph.CurveArc {
		after = curveState{curve: graph.CurveSegmented, segmented: &graph.SegmentedControl{}}
	} else {
		after = curveState{
			curve: graph.CurveArc,
			arc:   &graph.ArcControl{Radius: m.cfg.MinRadiusRatio * e.Size.Span(e.Shape)},
		}
	}
	m.push(&toggleCurveCmd{edgeID: id, before: before, after: after})
}

// push applies a command, records it for undo, and drops the redo
// history.
func (m *Machine) push(cmd Command) {
	cmd.Apply(m.g)
	m.syncTouched(cmd)
	m.undo = append(m.undo, cmd)
	m.redo = m.redo[:0]
}

// Undo reverts the most recent command. Returns false when the stack is
// empty.
func (m *Machine) Undo() bool {
	if len(m.undo) == 0 {
		return false
	}
	cmd := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	cmd.Revert(m.g)
	m.syncTouched(cmd)
	m.redo = append(m.redo, cmd)
	m.repairStroke()
	return true
}

// Redo re-applies the most recently undone command.
func (m *Machine) Redo() bool {
	if len(m.redo) == 0 {
		return false
	}
	cmd := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	cmd.Apply(m.g)
	m.syncTouched(cmd)
	m.undo = append(m.undo, cmd)
	return true
}

// repairStroke drops open-polyline references that an undo removed
// from the graph.
func (m *Machine) repairStroke() {
	if !m.lastNode.IsZero() && m.g.Node(m.lastNode) == nil {
		m.clearStroke()
		return
	}
	if !m.lastEdge.IsZero() && m.g.Edge(m.lastEdge) == nil {
		m.lastEdge = ""
	}
}

// syncTouched regenerates snap points for every entity a command
// touched, in both the apply and revert directions.
func (m *Machine) syncTouched(cmd Command) {
	for _, ref := range cmd.Touched() {
		switch ref.Kind {
		case graph.EntityNode:
			if m.g.Node(graph.NodeID(ref.ID)) != nil {
				m.registry.SyncNode(graph.NodeID(ref.ID))
			} else {
				m.registry.RemoveEntity(ref)
			}
		case graph.EntityEdge:
			if m.g.Edge(graph.EdgeID(ref.ID)) != nil {
				m.registry.SyncEdge(graph.EdgeID(ref.ID))
			} else {
				m.registry.RemoveEntity(ref)
			}
		}
	}
}
