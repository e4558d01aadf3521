// Package snap implements the interactive snap-logic engine: candidate
// anchor points derived from the duct graph, a dynamic 2D spatial index
// over them, and a resolver that turns a cursor position into a single
// snap target under a fixed priority hierarchy.
package snap

import (
	"fmt"

	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
)

// Kind classifies a snap point. The numeric value is the priority rank:
// lower is higher priority.
type Kind int

const (
	KindEndpoint     Kind = iota // node / segment endpoint (highest)
	KindCenterline               // interior bend point on a centerline
	KindMidpoint                 // derived midpoint of an edge
	KindIntersection             // crossing of two centerlines (lowest)
)

func (k Kind) String() string {
	switch k {
	case KindEndpoint:
		return "endpoint"
	case KindCenterline:
		return "centerline"
	case KindMidpoint:
		return "midpoint"
	case KindIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// PriorityRank returns the rank used by the resolver. Endpoint is 0
// (highest priority), Intersection 3 (lowest). The rank is derived
// solely from the kind and never stored.
func (k Kind) PriorityRank() int { return int(k) }

// Point is a candidate anchor the cursor can lock onto.
type Point struct {
	// ID is unique within the index; the registry derives it from the
	// owning entity so regeneration is idempotent.
	ID       string          `json:"id"`
	Position geom.Point2D    `json:"position"`
	Kind     Kind            `json:"kind"`
	Owner    graph.EntityRef `json:"owner"`
}

func (p Point) String() string {
	return fmt.Sprintf("%s@%s", p.Kind, p.Position)
}

// Modifiers carries the host-reported modifier state for one input
// event. The host maps its own gestures (Ctrl/Alt/Shift, long-press)
// onto these semantics.
type Modifiers struct {
	// Override restricts resolution to a single kind when HasOverride
	// is set (snap-priority override shortcut).
	Override    Kind
	HasOverride bool
	// BranchIntent signals the branch-insertion gesture (modifier key
	// or long-press).
	BranchIntent bool
}
