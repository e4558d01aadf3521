package graph

import "github.com/hvackit/ductline/pkg/geom"

// Node is a junction in the duct graph. Degree and fitting hints are
// derived from the incident edges, never stored on the node itself.
type Node struct {
	ID       NodeID       `json:"id"`
	Position geom.Point2D `json:"position"`
	// Terminal marks a deliberate open end (diffuser, equipment
	// connection). A degree-1 node that is not terminal is flagged as
	// an open end at build time.
	Terminal bool `json:"terminal,omitempty"`
	// Equipment optionally names the connected equipment for terminals.
	Equipment string `json:"equipment,omitempty"`
}

// FittingHint is the fitting family inferred for a node from its degree
// and the angles of its incident edges.
type FittingHint int

const (
	FittingNone     FittingHint = iota // degree 0 or 1
	FittingCoupling                    // degree 2, colinear
	FittingElbow                       // degree 2, bent
	FittingTee                         // degree 3, branch at ~90 off a through run
	FittingWye                         // degree 3, oblique branch
	FittingCross                       // degree 4, two perpendicular through runs
	FittingMultiWay                    // degree >= 4, irregular
)

func (f FittingHint) String() string {
	switch f {
	case FittingNone:
		return "none"
	case FittingCoupling:
		return "coupling"
	case FittingElbow:
		return "elbow"
	case FittingTee:
		return "tee"
	case FittingWye:
		return "wye"
	case FittingCross:
		return "cross"
	case FittingMultiWay:
		return "multi-way"
	default:
		return "unknown"
	}
}
