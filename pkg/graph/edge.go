package graph

import "github.com/hvackit/ductline/pkg/geom"

// DuctShape distinguishes the cross-section bound to a centerline.
type DuctShape int

const (
	ShapeRound DuctShape = iota // circular cross-section
	ShapeRect                   // rectangular cross-section
)

func (s DuctShape) String() string {
	switch s {
	case ShapeRound:
		return "round"
	case ShapeRect:
		return "rect"
	default:
		return "unknown"
	}
}

// DuctSize is the cross-section size in mm. Diameter applies to round
// ducts, Width/Height to rectangular ones.
type DuctSize struct {
	Diameter float64 `json:"diameter,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
}

// Span returns the governing cross-section dimension used by the
// SMACNA centerline-radius check: the diameter for round ducts, the
// width (dimension in the plane of the bend) for rectangular ones.
func (s DuctSize) Span(shape DuctShape) float64 {
	if shape == ShapeRound {
		return s.Diameter
	}
	return s.Width
}

// CurveType distinguishes a true curved centerline from a piecewise
// straight one.
type CurveType int

const (
	CurveSegmented CurveType = iota
	CurveArc
)

func (c CurveType) String() string {
	switch c {
	case CurveSegmented:
		return "segmented"
	case CurveArc:
		return "arc"
	default:
		return "unknown"
	}
}

// ArcControl is the control data for an Arc centerline. The arc bends
// from endpoint A toward endpoint B with the given centerline radius.
// A radius below the SMACNA minimum ratio for the bound duct size marks
// the edge non-compliant at build time; it is never rejected
// structurally.
type ArcControl struct {
	Radius float64 `json:"radius"`
	// Clockwise selects the bend direction when both are geometrically
	// possible.
	Clockwise bool `json:"clockwise,omitempty"`
}

// SegmentedControl is the control data for a Segmented centerline:
// interior bend points between the two endpoints, in order from A to B.
type SegmentedControl struct {
	Waypoints []geom.Point2D `json:"waypoints,omitempty"`
}

// Centerline is an edge of the duct graph: the 1D axis of a duct run,
// the source of truth for 3D extrusion.
type Centerline struct {
	ID    EdgeID    `json:"id"`
	A     NodeID    `json:"a"`
	B     NodeID    `json:"b"`
	Curve CurveType `json:"curve"`
	Shape DuctShape `json:"shape"`
	Size  DuctSize  `json:"size"`

	// Exactly one of Arc / Segmented is set, matching Curve.
	Arc       *ArcControl       `json:"arc,omitempty"`
	Segmented *SegmentedControl `json:"segmented,omitempty"`
}

// Other returns the endpoint opposite n, or the zero NodeID if n is not
// an endpoint of the edge.
func (c *Centerline) Other(n NodeID) NodeID {
	switch n {
	case c.A:
		return c.B
	case c.B:
		return c.A
	default:
		return ZeroNodeID
	}
}

// Clone returns a deep copy of the centerline.
func (c *Centerline) Clone() *Centerline {
	cp := *c
	if c.Arc != nil {
		arc := *c.Arc
		cp.Arc = &arc
	}
	if c.Segmented != nil {
		seg := SegmentedControl{Waypoints: append([]geom.Point2D(nil), c.Segmented.Waypoints...)}
		cp.Segmented = &seg
	}
	return &cp
}
