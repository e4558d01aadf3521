package compliance

import (
	"context"
	"fmt"

	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
)

// Code references cited by radius outcomes.
const (
	refRoundElbow = "SMACNA HVAC Duct Construction Standards, Fig. 3-4 (round elbows)"
	refRectElbow  = "SMACNA HVAC Duct Construction Standards, Fig. 4-2 (rectangular elbows)"
)

// RadiusTable configures the minimum centerline bend radius as a ratio
// of the governing cross-section dimension.
type RadiusTable struct {
	// MinRatio is the minimum centerline radius divided by the duct
	// span. SMACNA smooth-radius elbows call for 1.5.
	MinRatio float64
}

// DefaultRadiusTable returns the standard smooth-radius elbow table.
func DefaultRadiusTable() RadiusTable {
	return RadiusTable{MinRatio: 1.5}
}

// MinRadius returns the minimum compliant centerline radius for the
// given cross-section.
func (t RadiusTable) MinRadius(shape graph.DuctShape, size graph.DuctSize) float64 {
	return t.MinRatio * size.Span(shape)
}

// RadiusValidator checks bend radii against a RadiusTable. It
// implements Validator.
type RadiusValidator struct {
	table RadiusTable
}

var _ Validator = (*RadiusValidator)(nil)

// NewRadiusValidator creates a radius validator. A zero MinRatio
// selects the default table.
func NewRadiusValidator(table RadiusTable) *RadiusValidator {
	if table.MinRatio <= 0 {
		table = DefaultRadiusTable()
	}
	return &RadiusValidator{table: table}
}

// Validate checks the subject's bend radius. Straight runs pass
// unconditionally.
func (v *RadiusValidator) Validate(ctx context.Context, s Subject) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	ref := refRoundElbow
	if s.Shape == graph.ShapeRect {
		ref = refRectElbow
	}

	if s.Radius == 0 {
		return Outcome{Passed: true, Message: "straight run", CodeReference: ref}, nil
	}

	min := v.table.MinRadius(s.Shape, s.Size)
	if s.Radius+geom.Eps < min {
		return Outcome{
			Passed: false,
			Message: fmt.Sprintf("centerline radius %.1f below minimum %.1f (%.1fx span %.1f)",
				s.Radius, min, v.table.MinRatio, s.Size.Span(s.Shape)),
			CodeReference: ref,
		}, nil
	}
	return Outcome{
		Passed:        true,
		Message:       fmt.Sprintf("centerline radius %.1f meets minimum %.1f", s.Radius, min),
		CodeReference: ref,
	}, nil
}
