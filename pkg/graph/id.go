package graph

import "github.com/google/uuid"

// NodeID identifies a junction in the duct graph.
type NodeID string

// EdgeID identifies a centerline edge in the duct graph.
type EdgeID string

// ZeroNodeID is the zero value for NodeID.
const ZeroNodeID NodeID = ""

// NewNodeID returns a fresh random node identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// NewEdgeID returns a fresh random edge identifier.
func NewEdgeID() EdgeID {
	return EdgeID(uuid.NewString())
}

// IsZero reports whether the ID is the zero value.
func (id NodeID) IsZero() bool { return id == "" }

// IsZero reports whether the ID is the zero value.
func (id EdgeID) IsZero() bool { return id == "" }

// Short returns an abbreviated form for log and error messages.
func (id NodeID) Short() string { return shortID(string(id)) }

// Short returns an abbreviated form for log and error messages.
func (id EdgeID) Short() string { return shortID(string(id)) }

func (id NodeID) String() string { return string(id) }

func (id EdgeID) String() string { return string(id) }

func shortID(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// EntityKind classifies the producer of a snap point or diagnostic.
type EntityKind int

const (
	EntityNode EntityKind = iota
	EntityEdge
	EntityRoom
	EntityEquipment
)

func (k EntityKind) String() string {
	switch k {
	case EntityNode:
		return "node"
	case EntityEdge:
		return "edge"
	case EntityRoom:
		return "room"
	case EntityEquipment:
		return "equipment"
	default:
		return "unknown"
	}
}

// EntityRef is a stable, weak back-reference to the entity that produced
// a derived value (snap point, diagnostic). It is used for lookup only
// and never implies ownership.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// NodeRef builds an EntityRef for a graph node.
func NodeRef(id NodeID) EntityRef {
	return EntityRef{Kind: EntityNode, ID: string(id)}
}

// EdgeRef builds an EntityRef for a graph edge.
func EdgeRef(id EdgeID) EntityRef {
	return EntityRef{Kind: EntityEdge, ID: string(id)}
}
