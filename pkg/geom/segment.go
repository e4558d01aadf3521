package geom

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Eps is the default absolute tolerance for coordinate comparisons.
const Eps = 1e-9

// EqualPoints reports whether two points coincide within tol.
func EqualPoints(p, q Point2D, tol float64) bool {
	return scalar.EqualWithinAbs(p.X, q.X, tol) && scalar.EqualWithinAbs(p.Y, q.Y, tol)
}

// ClosestOnSegment returns the point on segment a-b closest to p and the
// segment parameter t in [0, 1] at which it lies.
func ClosestOnSegment(p, a, b Point2D) (Point2D, float64) {
	ab := b.Sub(a)
	len2 := ab.Dot(ab)
	if len2 == 0 {
		return a, 0 // degenerate segment
	}
	t := p.Sub(a).Dot(ab) / len2
	t = math.Max(0, math.Min(1, t))
	return a.Lerp(b, t), t
}

// SegmentIntersection computes the proper intersection of segments a1-a2
// and b1-b2. It returns false for parallel or collinear segments and for
// intersections that fall outside either segment. Endpoint touches count
// as intersections; callers that want interior-only crossings filter by
// the returned parameters.
func SegmentIntersection(a1, a2, b1, b2 Point2D) (pt Point2D, ta, tb float64, ok bool) {
	da := a2.Sub(a1)
	db := b2.Sub(b1)
	denom := da.Cross(db)
	if scalar.EqualWithinAbs(denom, 0, Eps) {
		return Point2D{}, 0, 0, false
	}
	d := b1.Sub(a1)
	ta = d.Cross(db) / denom
	tb = d.Cross(da) / denom
	if ta < -Eps || ta > 1+Eps || tb < -Eps || tb > 1+Eps {
		return Point2D{}, 0, 0, false
	}
	return a1.Lerp(a2, ta), ta, tb, true
}

// TurnAngle returns the deviation from straight, in radians, of the path
// prev -> at -> next. A collinear continuation yields 0; a hairpin yields
// pi. Degenerate legs yield 0.
func TurnAngle(prev, at, next Point2D) float64 {
	u := at.Sub(prev)
	v := next.Sub(at)
	if u.Norm() == 0 || v.Norm() == 0 {
		return 0
	}
	cos := u.Dot(v) / (u.Norm() * v.Norm())
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// IncludedAngle returns the angle at vertex p between rays p->a and p->b,
// in radians in [0, pi].
func IncludedAngle(p, a, b Point2D) float64 {
	u := a.Sub(p)
	v := b.Sub(p)
	if u.Norm() == 0 || v.Norm() == 0 {
		return 0
	}
	cos := u.Dot(v) / (u.Norm() * v.Norm())
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
