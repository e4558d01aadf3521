// Package graph defines the persistent duct centerline graph: an arena
// of nodes and edges indexed by ID. The graph may contain cycles (ring
// ductwork is legal). It is owned by the drawing session; converters
// and validators borrow it read-only or work on a Clone.
package graph

import (
	"fmt"
	"sort"

	"github.com/hvackit/ductline/pkg/geom"
)

// DuctGraph holds the drawn centerline network.
//
// Referencing a node or edge ID that does not exist is a programmer
// error: mutating methods panic rather than return an error, mirroring
// the contract-violation semantics of the drawing session. User-driven
// ambiguity never reaches this layer.
type DuctGraph struct {
	Nodes map[NodeID]*Node       `json:"nodes"`
	Edges map[EdgeID]*Centerline `json:"edges"`

	// Version increments on every mutation. Background builds use it
	// to detect staleness of their snapshot.
	Version uint64 `json:"version"`

	// incident is the adjacency index, rebuilt on mutation and after
	// deserialization. Not serialized.
	incident map[NodeID][]EdgeID
}

// New creates an empty DuctGraph.
func New() *DuctGraph {
	return &DuctGraph{
		Nodes:    make(map[NodeID]*Node),
		Edges:    make(map[EdgeID]*Centerline),
		incident: make(map[NodeID][]EdgeID),
	}
}

// AddNode adds a node to the graph. Panics if the ID is zero or already
// present.
func (g *DuctGraph) AddNode(n *Node) {
	if n.ID.IsZero() {
		panic("graph: AddNode with zero NodeID")
	}
	if _, ok := g.Nodes[n.ID]; ok {
		panic(fmt.Sprintf("graph: duplicate node %s", n.ID.Short()))
	}
	g.Nodes[n.ID] = n
	g.Version++
}

// AddEdge adds a centerline to the graph. Panics if either endpoint is
// missing or the edge ID is already present.
func (g *DuctGraph) AddEdge(c *Centerline) {
	if c.ID.IsZero() {
		panic("graph: AddEdge with zero EdgeID")
	}
	if _, ok := g.Edges[c.ID]; ok {
		panic(fmt.Sprintf("graph: duplicate edge %s", c.ID.Short()))
	}
	if _, ok := g.Nodes[c.A]; !ok {
		panic(fmt.Sprintf("graph: edge %s references missing node %s", c.ID.Short(), c.A.Short()))
	}
	if _, ok := g.Nodes[c.B]; !ok {
		panic(fmt.Sprintf("graph: edge %s references missing node %s", c.ID.Short(), c.B.Short()))
	}
	g.Edges[c.ID] = c
	g.incident[c.A] = append(g.incident[c.A], c.ID)
	g.incident[c.B] = append(g.incident[c.B], c.ID)
	g.Version++
}

// RemoveEdge removes a centerline. Panics if the edge does not exist.
func (g *DuctGraph) RemoveEdge(id EdgeID) {
	c, ok := g.Edges[id]
	if !ok {
		panic(fmt.Sprintf("graph: RemoveEdge of missing edge %s", id.Short()))
	}
	delete(g.Edges, id)
	g.incident[c.A] = removeEdgeID(g.incident[c.A], id)
	g.incident[c.B] = removeEdgeID(g.incident[c.B], id)
	g.Version++
}

// RemoveNode removes a node. Panics if the node does not exist or still
// has incident edges.
func (g *DuctGraph) RemoveNode(id NodeID) {
	if _, ok := g.Nodes[id]; !ok {
		panic(fmt.Sprintf("graph: RemoveNode of missing node %s", id.Short()))
	}
	if len(g.incident[id]) > 0 {
		panic(fmt.Sprintf("graph: RemoveNode of node %s with incident edges", id.Short()))
	}
	delete(g.Nodes, id)
	delete(g.incident, id)
	g.Version++
}

// Node returns the node with the given ID, or nil.
func (g *DuctGraph) Node(id NodeID) *Node {
	return g.Nodes[id]
}

// Edge returns the centerline with the given ID, or nil.
func (g *DuctGraph) Edge(id EdgeID) *Centerline {
	return g.Edges[id]
}

// Degree returns the number of edges incident to the node.
func (g *DuctGraph) Degree(id NodeID) int {
	return len(g.incident[id])
}

// IncidentEdges returns the IDs of edges incident to the node, sorted
// for deterministic traversal.
func (g *DuctGraph) IncidentEdges(id NodeID) []EdgeID {
	out := append([]EdgeID(nil), g.incident[id]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NodeIDs returns all node IDs in sorted order.
func (g *DuctGraph) NodeIDs() []NodeID {
	out := make([]NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EdgeIDs returns all edge IDs in sorted order.
func (g *DuctGraph) EdgeIDs() []EdgeID {
	out := make([]EdgeID, 0, len(g.Edges))
	for id := range g.Edges {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EdgeDirection returns the unit direction of the first straight leg of
// the edge leaving the given endpoint. For arc edges this is the chord
// direction. Panics if from is not an endpoint.
func (g *DuctGraph) EdgeDirection(id EdgeID, from NodeID) geom.Point2D {
	c := g.Edges[id]
	if c == nil {
		panic(fmt.Sprintf("graph: EdgeDirection of missing edge %s", id.Short()))
	}
	path := g.EdgePath(id)
	if from == c.B {
		// Walk the path from the B end.
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
	} else if from != c.A {
		panic(fmt.Sprintf("graph: node %s is not an endpoint of edge %s", from.Short(), id.Short()))
	}
	for i := 1; i < len(path); i++ {
		d := path[i].Sub(path[0])
		if d.Norm() > 0 {
			return d.Unit()
		}
	}
	return geom.Point2D{}
}

// EdgePath returns the polyline of the edge from A to B: the endpoints
// with any interior waypoints between them. Arc edges contribute only
// their chord; converters sample arcs themselves.
func (g *DuctGraph) EdgePath(id EdgeID) []geom.Point2D {
	c := g.Edges[id]
	if c == nil {
		panic(fmt.Sprintf("graph: EdgePath of missing edge %s", id.Short()))
	}
	a := g.Nodes[c.A].Position
	b := g.Nodes[c.B].Position
	path := make([]geom.Point2D, 0, 2)
	path = append(path, a)
	if c.Curve == CurveSegmented && c.Segmented != nil {
		path = append(path, c.Segmented.Waypoints...)
	}
	return append(path, b)
}

// EdgeLength returns the polyline length of the edge path. For arcs this
// is the chord length, which is sufficient for midpoint derivation.
func (g *DuctGraph) EdgeLength(id EdgeID) float64 {
	path := g.EdgePath(id)
	var total float64
	for i := 1; i < len(path); i++ {
		total += path[i].Dist(path[i-1])
	}
	return total
}

// Midpoint returns the point at half the path length of the edge.
func (g *DuctGraph) Midpoint(id EdgeID) geom.Point2D {
	path := g.EdgePath(id)
	half := g.EdgeLength(id) / 2
	for i := 1; i < len(path); i++ {
		leg := path[i].Dist(path[i-1])
		if leg >= half && leg > 0 {
			return path[i-1].Lerp(path[i], half/leg)
		}
		half -= leg
	}
	return path[len(path)-1]
}

// Clone returns a deep copy of the graph, including the adjacency
// index. Background builds run against clones so the live graph stays
// mutable.
func (g *DuctGraph) Clone() *DuctGraph {
	out := New()
	out.Version = g.Version
	for id, n := range g.Nodes {
		cp := *n
		out.Nodes[id] = &cp
	}
	for id, c := range g.Edges {
		out.Edges[id] = c.Clone()
	}
	out.rebuildIncident()
	return out
}

// rebuildIncident reconstructs the adjacency index from the edge set.
func (g *DuctGraph) rebuildIncident() {
	g.incident = make(map[NodeID][]EdgeID, len(g.Nodes))
	for _, id := range g.EdgeIDs() {
		c := g.Edges[id]
		g.incident[c.A] = append(g.incident[c.A], id)
		g.incident[c.B] = append(g.incident[c.B], id)
	}
}

func removeEdgeID(ids []EdgeID, id EdgeID) []EdgeID {
	for i, e := range ids {
		if e == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
