package graph

import (
	"encoding/json"
	"fmt"

	"github.com/hvackit/ductline/pkg/geom"
)

// graphFile is the on-disk envelope: flat node and edge lists instead of
// maps, so output ordering is stable and diffs stay readable.
type graphFile struct {
	Version uint64        `json:"version"`
	Nodes   []*Node       `json:"nodes"`
	Edges   []*Centerline `json:"edges"`
}

// Marshal serializes the graph to JSON. The result round-trips through
// Unmarshal losslessly, including cycles and mixed curve types.
func Marshal(g *DuctGraph) ([]byte, error) {
	f := graphFile{Version: g.Version}
	for _, id := range g.NodeIDs() {
		f.Nodes = append(f.Nodes, g.Nodes[id])
	}
	for _, id := range g.EdgeIDs() {
		f.Edges = append(f.Edges, g.Edges[id])
	}
	return json.MarshalIndent(f, "", "  ")
}

// Unmarshal reconstructs a graph from its serialized form, validating
// referential integrity and curve/control consistency.
func Unmarshal(data []byte) (*DuctGraph, error) {
	var f graphFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("graph: decode: %w", err)
	}

	g := New()
	g.Version = f.Version
	for _, n := range f.Nodes {
		if n.ID.IsZero() {
			return nil, fmt.Errorf("graph: node with empty id")
		}
		if _, dup := g.Nodes[n.ID]; dup {
			return nil, fmt.Errorf("graph: duplicate node %s", n.ID.Short())
		}
		g.Nodes[n.ID] = n
	}
	for _, c := range f.Edges {
		if c.ID.IsZero() {
			return nil, fmt.Errorf("graph: edge with empty id")
		}
		if _, dup := g.Edges[c.ID]; dup {
			return nil, fmt.Errorf("graph: duplicate edge %s", c.ID.Short())
		}
		if _, ok := g.Nodes[c.A]; !ok {
			return nil, fmt.Errorf("graph: edge %s references missing node %s", c.ID.Short(), c.A.Short())
		}
		if _, ok := g.Nodes[c.B]; !ok {
			return nil, fmt.Errorf("graph: edge %s references missing node %s", c.ID.Short(), c.B.Short())
		}
		switch c.Curve {
		case CurveArc:
			if c.Arc == nil {
				return nil, fmt.Errorf("graph: arc edge %s missing arc control data", c.ID.Short())
			}
		case CurveSegmented:
			if c.Arc != nil {
				return nil, fmt.Errorf("graph: segmented edge %s carries arc control data", c.ID.Short())
			}
		default:
			return nil, fmt.Errorf("graph: edge %s has unknown curve type %d", c.ID.Short(), c.Curve)
		}
		g.Edges[c.ID] = c
	}
	g.rebuildIncident()
	return g, nil
}

// Equal reports structural equality of two graphs: same node set, same
// edge set, field-for-field. Version is ignored.
func Equal(a, b *DuctGraph) bool {
	if len(a.Nodes) != len(b.Nodes) || len(a.Edges) != len(b.Edges) {
		return false
	}
	for id, an := range a.Nodes {
		bn, ok := b.Nodes[id]
		if !ok || *an != *bn {
			return false
		}
	}
	for id, ae := range a.Edges {
		be, ok := b.Edges[id]
		if !ok || !equalEdges(ae, be) {
			return false
		}
	}
	return true
}

func equalEdges(a, b *Centerline) bool {
	if a.ID != b.ID || a.A != b.A || a.B != b.B ||
		a.Curve != b.Curve || a.Shape != b.Shape || a.Size != b.Size {
		return false
	}
	switch {
	case a.Arc == nil != (b.Arc == nil):
		return false
	case a.Arc != nil && *a.Arc != *b.Arc:
		return false
	}
	var aw, bw []geom.Point2D
	if a.Segmented != nil {
		aw = a.Segmented.Waypoints
	}
	if b.Segmented != nil {
		bw = b.Segmented.Waypoints
	}
	if len(aw) != len(bw) {
		return false
	}
	for i := range aw {
		if aw[i] != bw[i] {
			return false
		}
	}
	return true
}
