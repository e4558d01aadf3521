// Package compliance checks duct geometry against fabrication
// standards. Validators are advisory: a failed check annotates the
// geometry with a code reference, it never blocks a build.
package compliance

import (
	"context"

	"github.com/hvackit/ductline/pkg/graph"
)

// Subject is one piece of geometry submitted for validation.
type Subject struct {
	EdgeID graph.EdgeID
	Shape  graph.DuctShape
	Size   graph.DuctSize
	// Radius is the centerline bend radius, zero for straight runs.
	Radius float64
	// AngleDeg is the included bend angle in degrees, zero for
	// straight runs.
	AngleDeg float64
}

// Outcome is the result of a single validation.
type Outcome struct {
	Passed  bool
	Message string
	// CodeReference cites the standard clause the outcome is based on,
	// e.g. "SMACNA HVAC Duct Construction Standards, Fig. 4-2".
	CodeReference string
}

// Validator checks a subject against a fabrication standard. An error
// return means the validator itself could not run; callers degrade
// gracefully and keep the geometry unannotated.
type Validator interface {
	Validate(ctx context.Context, s Subject) (Outcome, error)
}
