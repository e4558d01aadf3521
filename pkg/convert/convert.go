// Package convert turns a duct centerline graph into 3D geometry: one
// solid per edge, a fitting placement per junction, and structural
// diagnostics. Builds are read-only over the graph; the session
// dispatches them to a background goroutine via Builder.
package convert

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hvackit/ductline/pkg/compliance"
	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
	"github.com/hvackit/ductline/pkg/kernel"
)

// BuildParams are the per-build defaults applied to edges without an
// explicit size binding.
type BuildParams struct {
	DefaultShape graph.DuctShape
	DefaultSize  graph.DuctSize
	// AngleToleranceDeg is the tolerance used when classifying
	// junction angles into fitting families.
	AngleToleranceDeg float64
	// RadiusTable configures the arc-radius compliance floor.
	RadiusTable compliance.RadiusTable
	// EmitMeshes tessellates every solid into a triangle mesh. Off by
	// default; interactive rebuilds only need bounding geometry.
	EmitMeshes bool
}

// DefaultBuildParams returns the standard build configuration.
func DefaultBuildParams() BuildParams {
	return BuildParams{
		DefaultShape:      graph.ShapeRound,
		DefaultSize:       graph.DuctSize{Diameter: 200},
		AngleToleranceDeg: graph.DefaultAngleTolerance,
		RadiusTable:       compliance.DefaultRadiusTable(),
	}
}

// DiagnosticKind classifies a structural problem found during a build.
type DiagnosticKind int

const (
	// OpenEnd is a degree-1 node not marked as a terminal.
	OpenEnd DiagnosticKind = iota
	// Overlap is two solids occupying intersecting volume without a
	// shared node.
	Overlap
	// ArcRadiusViolation is an arc edge whose centerline radius is
	// below the configured minimum.
	ArcRadiusViolation
)

func (k DiagnosticKind) String() string {
	switch k {
	case OpenEnd:
		return "open-end"
	case Overlap:
		return "overlap"
	case ArcRadiusViolation:
		return "arc-radius-violation"
	default:
		return "unknown"
	}
}

// Diagnostic is one structural finding attached to a BuildResult.
// Diagnostics are never fatal; a build with diagnostics still returns
// its geometry.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	NodeID  graph.NodeID   `json:"nodeId,omitempty"`
	EdgeIDs []graph.EdgeID `json:"edgeIds,omitempty"`
	Message string         `json:"message"`
	// CodeReference is the standards citation attached by the
	// compliance validator to radius-class diagnostics; empty for other
	// kinds and when the validator is unavailable.
	CodeReference string `json:"codeReference,omitempty"`
}

// DuctSolid is the 3D geometry of one edge.
type DuctSolid struct {
	EdgeID graph.EdgeID
	Solid  kernel.Solid
	// Mesh is set only when BuildParams.EmitMeshes is on.
	Mesh *kernel.Mesh
}

// FittingPlacement records the fitting family selected for a junction.
type FittingPlacement struct {
	NodeID   graph.NodeID
	Kind     graph.FittingHint
	Position geom.Point2D
}

// BuildResult is the output of one build pass.
type BuildResult struct {
	Solids      []DuctSolid
	Fittings    []FittingPlacement
	Diagnostics []Diagnostic
	// GraphVersion is the version of the graph the build saw.
	GraphVersion uint64
}

// Converter builds geometry from duct graphs. The validator is
// optional; without one, diagnostics carry no citation.
type Converter struct {
	k         kernel.Kernel
	validator compliance.Validator
}

// NewConverter creates a converter over the given kernel.
func NewConverter(k kernel.Kernel, validator compliance.Validator) *Converter {
	return &Converter{k: k, validator: validator}
}

// Build traverses the graph and emits solids, fittings, and
// diagnostics. Traversal is in sorted ID order so repeated builds of an
// unchanged graph yield content-equal results. The context is checked
// between entities; a cancelled build returns the context error.
func (c *Converter) Build(ctx context.Context, g *graph.DuctGraph, params BuildParams) (*BuildResult, error) {
	if params.AngleToleranceDeg <= 0 {
		params.AngleToleranceDeg = graph.DefaultAngleTolerance
	}
	if params.RadiusTable.MinRatio <= 0 {
		params.RadiusTable = compliance.DefaultRadiusTable()
	}

	res := &BuildResult{GraphVersion: g.Version}

	for _, id := range g.EdgeIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := g.Edge(id)
		shape, size := c.effective(e, params)

		solid := c.extrudeEdge(g, e, shape, size)
		ds := DuctSolid{EdgeID: id, Solid: solid}
		if params.EmitMeshes {
			mesh, err := c.k.ToMesh(solid)
			if err != nil {
				return nil, fmt.Errorf("convert: meshing edge %s: %w", id.Short(), err)
			}
			mesh.Source = string(id)
			ds.Mesh = mesh
		}
		res.Solids = append(res.Solids, ds)

		if e.Curve == graph.CurveArc && e.Arc != nil {
			min := params.RadiusTable.MinRadius(shape, size)
			if e.Arc.Radius+geom.Eps < min {
				res.Diagnostics = append(res.Diagnostics, c.cite(ctx, Diagnostic{
					Kind:    ArcRadiusViolation,
					EdgeIDs: []graph.EdgeID{id},
					Message: fmt.Sprintf("arc radius %.1f below minimum %.1f", e.Arc.Radius, min),
				}, compliance.Subject{
					EdgeID:   id,
					Shape:    shape,
					Size:     size,
					Radius:   e.Arc.Radius,
					AngleDeg: 90,
				}))
			}
		}
	}

	for _, id := range g.NodeIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := g.Node(id)
		switch deg := g.Degree(id); {
		case deg == 1 && !n.Terminal:
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind:    OpenEnd,
				NodeID:  id,
				Message: fmt.Sprintf("node %s has an unterminated open end", id.Short()),
			})
		case deg >= 2:
			res.Fittings = append(res.Fittings, FittingPlacement{
				NodeID:   id,
				Kind:     g.FittingHintFor(id, params.AngleToleranceDeg),
				Position: n.Position,
			})
		}
	}

	res.Diagnostics = append(res.Diagnostics, c.overlaps(ctx, g, res.Solids)...)
	return res, nil
}

// effective resolves the shape and size bound to an edge, falling back
// to the build defaults when the edge carries no size.
func (c *Converter) effective(e *graph.Centerline, params BuildParams) (graph.DuctShape, graph.DuctSize) {
	shape, size := e.Shape, e.Size
	if size.Span(shape) == 0 {
		shape, size = params.DefaultShape, params.DefaultSize
	}
	return shape, size
}

// cite asks the compliance validator for a standards citation. Only
// radius-class diagnostics are cited; the validator's references cover
// bend geometry, not structural findings. A missing or failing
// validator leaves the diagnostic uncited; the build still succeeds.
func (c *Converter) cite(ctx context.Context, d Diagnostic, s compliance.Subject) Diagnostic {
	if c.validator == nil {
		return d
	}
	out, err := c.validator.Validate(ctx, s)
	if err != nil {
		return d
	}
	d.CodeReference = out.CodeReference
	return d
}

// overlaps reports solid pairs with intersecting bounding boxes that do
// not share a node. Bounding boxes are conservative; exact volume
// booleans stay inside the kernel.
func (c *Converter) overlaps(ctx context.Context, g *graph.DuctGraph, solids []DuctSolid) []Diagnostic {
	var out []Diagnostic
	for i := 0; i < len(solids); i++ {
		if ctx.Err() != nil {
			return out
		}
		for j := i + 1; j < len(solids); j++ {
			a, b := g.Edge(solids[i].EdgeID), g.Edge(solids[j].EdgeID)
			if sharesNode(a, b) {
				continue
			}
			if boxesIntersect(solids[i].Solid, solids[j].Solid) {
				pair := []graph.EdgeID{solids[i].EdgeID, solids[j].EdgeID}
				sort.Slice(pair, func(x, y int) bool { return pair[x] < pair[y] })
				out = append(out, Diagnostic{
					Kind:    Overlap,
					EdgeIDs: pair,
					Message: fmt.Sprintf("edges %s and %s occupy intersecting volume", pair[0].Short(), pair[1].Short()),
				})
			}
		}
	}
	return out
}

func sharesNode(a, b *graph.Centerline) bool {
	return a.A == b.A || a.A == b.B || a.B == b.A || a.B == b.B
}

func boxesIntersect(a, b kernel.Solid) bool {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	for i := 0; i < 3; i++ {
		if amax[i] <= bmin[i]+geom.Eps || bmax[i] <= amin[i]+geom.Eps {
			return false
		}
	}
	return true
}

// --- edge extrusion ---

// extrudeEdge builds the solid for one edge. Segmented edges become a
// union of straight runs, one per leg. Round arcs use the kernel elbow
// primitive; rectangular arcs are sampled into straight legs.
func (c *Converter) extrudeEdge(g *graph.DuctGraph, e *graph.Centerline, shape graph.DuctShape, size graph.DuctSize) kernel.Solid {
	if e.Curve == graph.CurveArc && e.Arc != nil {
		a := g.Node(e.A).Position
		b := g.Node(e.B).Position
		if shape == graph.ShapeRound {
			return c.roundElbow(a, b, e.Arc, size.Diameter/2)
		}
		return c.legsSolid(sampleArc(a, b, e.Arc), shape, size)
	}
	return c.legsSolid(g.EdgePath(e.ID), shape, size)
}

// legsSolid unions one straight run per polyline leg.
func (c *Converter) legsSolid(path []geom.Point2D, shape graph.DuctShape, size graph.DuctSize) kernel.Solid {
	var out kernel.Solid
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		length := a.Dist(b)
		if length < geom.Eps {
			continue
		}
		var s kernel.Solid
		if shape == graph.ShapeRound {
			s = c.k.Cylinder(length, size.Diameter/2)
		} else {
			s = c.k.Box(size.Width, size.Height, length)
		}
		// Lay the Z-axis run into the drawing plane along the leg.
		d := b.Sub(a)
		heading := geom.Degrees(math.Atan2(d.Y, d.X))
		s = c.k.Rotate(s, 0, 90, heading)
		mid := a.Lerp(b, 0.5)
		s = c.k.Translate(s, mid.X, mid.Y, 0)
		if out == nil {
			out = s
		} else {
			out = c.k.Union(out, s)
		}
	}
	if out == nil {
		// Degenerate zero-length edge still yields a solid.
		out = c.k.Cylinder(geom.Eps, geom.Eps)
	}
	return out
}

// roundElbow positions the kernel's torus-segment primitive on the arc
// through a and b.
func (c *Converter) roundElbow(a, b geom.Point2D, arc *graph.ArcControl, tubeRadius float64) kernel.Solid {
	center, startRad, sweepRad, ccw := arcFrame(a, b, arc)
	s := c.k.Elbow(center.Dist(a), tubeRadius, sweepRad)
	rot := startRad
	if !ccw {
		// The primitive sweeps counterclockwise; clockwise travel
		// covers the same set starting from the far end.
		rot = startRad - sweepRad
	}
	s = c.k.Rotate(s, 0, 0, geom.Degrees(rot))
	return c.k.Translate(s, center.X, center.Y, 0)
}

// arcFrame derives the circle placement for an arc edge: the bend
// center, the angle of endpoint a around it, the sweep magnitude, and
// the travel direction from a to b. A radius shorter than half the
// chord is clamped so the geometry stays constructible; the compliance
// check runs against the declared radius separately.
func arcFrame(a, b geom.Point2D, arc *graph.ArcControl) (center geom.Point2D, startRad, sweepRad float64, ccw bool) {
	chord := b.Sub(a)
	halfChord := chord.Norm() / 2
	r := arc.Radius
	if r < halfChord {
		r = halfChord
	}
	h := math.Sqrt(math.Max(0, r*r-halfChord*halfChord))
	mid := a.Lerp(b, 0.5)
	// Left normal of the travel direction. Center on the left bends
	// counterclockwise.
	n := geom.Point2D{X: -chord.Y, Y: chord.X}.Unit()
	ccw = !arc.Clockwise
	if ccw {
		center = mid.Add(n.Scale(h))
	} else {
		center = mid.Sub(n.Scale(h))
	}
	rel := a.Sub(center)
	startRad = math.Atan2(rel.Y, rel.X)
	frac := halfChord / r
	if frac > 1 {
		frac = 1
	}
	sweepRad = 2 * math.Asin(frac)
	return center, startRad, sweepRad, ccw
}

// sampleArc approximates an arc with straight legs at 15 degree steps,
// endpoints exact.
func sampleArc(a, b geom.Point2D, arc *graph.ArcControl) []geom.Point2D {
	center, startRad, sweepRad, ccw := arcFrame(a, b, arc)
	step := 15 * math.Pi / 180
	n := int(math.Ceil(sweepRad / step))
	if n < 1 {
		n = 1
	}
	r := center.Dist(a)
	sign := 1.0
	if !ccw {
		sign = -1
	}
	pts := make([]geom.Point2D, 0, n+1)
	pts = append(pts, a)
	for i := 1; i < n; i++ {
		phi := startRad + sign*sweepRad*float64(i)/float64(n)
		pts = append(pts, geom.Point2D{
			X: center.X + r*math.Cos(phi),
			Y: center.Y + r*math.Sin(phi),
		})
	}
	return append(pts, b)
}
