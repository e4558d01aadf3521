package snap

import (
	"github.com/hvackit/ductline/pkg/geom"
)

// Config holds the resolver tuning values. The exact tolerances are
// deployment-defined; the defaults below are starting points, not
// standards-derived values.
type Config struct {
	// TolerancePx is the snap capture radius in screen pixels.
	TolerancePx float64
	// Zoom is the current view scale in pixels per world unit. The
	// capture radius in world units is TolerancePx / Zoom.
	Zoom float64
	// TieEpsilonFrac is the fraction of the capture radius within
	// which two candidates count as coincident (a distance tie).
	TieEpsilonFrac float64
}

// DefaultConfig returns the default resolver tuning.
func DefaultConfig() Config {
	return Config{
		TolerancePx:    12,
		Zoom:           1,
		TieEpsilonFrac: 0.25,
	}
}

// radiusWorld converts the pixel tolerance to world units.
func (c Config) radiusWorld() float64 {
	z := c.Zoom
	if z <= 0 {
		z = 1
	}
	return c.TolerancePx / z
}

// Status reports how a resolution ended.
type Status int

const (
	// StatusNone: no candidate within tolerance.
	StatusNone Status = iota
	// StatusSnapped: exactly one winning candidate.
	StatusSnapped
	// StatusAmbiguous: a true distance tie at the winning priority
	// rank; the caller must present a disambiguation affordance.
	StatusAmbiguous
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusSnapped:
		return "snapped"
	case StatusAmbiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Result is the outcome of a snap resolution.
type Result struct {
	Status Status
	// Point is the winning candidate when Status is StatusSnapped.
	Point Point
	// Candidates carries the tied candidates when Status is
	// StatusAmbiguous, in deterministic order.
	Candidates []Point
}

// Resolver turns cursor positions into snap targets. It is pure: a
// Resolve call never mutates the index, and identical inputs against an
// unchanged index produce identical results.
type Resolver struct {
	idx *SpatialIndex
	cfg Config
}

// NewResolver creates a resolver over the given index.
func NewResolver(idx *SpatialIndex, cfg Config) *Resolver {
	if cfg.TolerancePx <= 0 {
		cfg.TolerancePx = DefaultConfig().TolerancePx
	}
	if cfg.TieEpsilonFrac <= 0 {
		cfg.TieEpsilonFrac = DefaultConfig().TieEpsilonFrac
	}
	return &Resolver{idx: idx, cfg: cfg}
}

// SetZoom updates the view scale. Called on the drawing-session thread.
func (r *Resolver) SetZoom(zoom float64) {
	if zoom > 0 {
		r.cfg.Zoom = zoom
	}
}

// Resolve finds the snap target for a cursor position.
//
// Candidates within the capture radius are grouped into coincidence
// buckets by distance; within the nearest bucket the lowest priority
// rank wins (Endpoint > CenterlinePoint > Midpoint > Intersection).
// lastUsed, when present in the nearest bucket, is preferred over the
// rank rule for consistency of intent, but never overrides a closer
// point of a different kind. A distance tie between candidates at the
// winning rank is returned as StatusAmbiguous; the resolver never
// guesses.
func (r *Resolver) Resolve(cursor geom.Point2D, mods Modifiers, lastUsed *Kind) Result {
	radius := r.cfg.radiusWorld()
	candidates := r.idx.QueryNear(cursor, radius)

	// Override: restrict to the requested kind, nearest wins outright.
	if mods.HasOverride {
		for _, c := range candidates {
			if c.Kind == mods.Override {
				return Result{Status: StatusSnapped, Point: c}
			}
		}
		return Result{Status: StatusNone}
	}

	if len(candidates) == 0 {
		return Result{Status: StatusNone}
	}

	// Nearest coincidence bucket: everything within tie epsilon of the
	// closest candidate. QueryNear returns distance order, so the
	// bucket is a prefix.
	eps := radius * r.cfg.TieEpsilonFrac
	nearest := candidates[0].Position.Dist(cursor)
	bucket := candidates[:1]
	for _, c := range candidates[1:] {
		if c.Position.Dist(cursor)-nearest <= eps {
			bucket = append(bucket, c)
		} else {
			break
		}
	}

	// Consistency of intent: reuse the last kind if it is in the bucket.
	// Several coincident points of that kind are still a true tie.
	if lastUsed != nil {
		var matches []Point
		for _, c := range bucket {
			if c.Kind == *lastUsed {
				matches = append(matches, c)
			}
		}
		switch {
		case len(matches) == 1:
			return Result{Status: StatusSnapped, Point: matches[0]}
		case len(matches) > 1:
			return Result{Status: StatusAmbiguous, Candidates: matches}
		}
	}

	// Lowest rank wins; a multi-kind tie at the best rank is ambiguous.
	best := bucket[0].Kind.PriorityRank()
	for _, c := range bucket[1:] {
		if c.Kind.PriorityRank() < best {
			best = c.Kind.PriorityRank()
		}
	}
	var tied []Point
	for _, c := range bucket {
		if c.Kind.PriorityRank() == best {
			tied = append(tied, c)
		}
	}
	// More than one candidate left at the winning rank is a true tie:
	// the user must choose, the resolver never guesses.
	if len(tied) > 1 {
		return Result{Status: StatusAmbiguous, Candidates: tied}
	}
	return Result{Status: StatusSnapped, Point: tied[0]}
}
