// Package geom provides the 2D/3D value types and the small amount of
// computational geometry the drawing core needs: vector arithmetic,
// point/segment projection, segment intersection, and bend angles.
package geom

import (
	"fmt"
	"math"
)

// Point2D is an immutable 2D coordinate in world units (mm).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point3D is an immutable 3D coordinate in world units (mm).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{p.X - q.X, p.Y - q.Y}
}

// Scale returns p scaled by f.
func (p Point2D) Scale(f float64) Point2D {
	return Point2D{p.X * f, p.Y * f}
}

// Dot returns the dot product p . q.
func (p Point2D) Dot(q Point2D) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the 2D cross product (z component of p x q).
func (p Point2D) Cross(q Point2D) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Norm returns the Euclidean length of p treated as a vector.
func (p Point2D) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the Euclidean distance between p and q.
func (p Point2D) Dist(q Point2D) float64 {
	return p.Sub(q).Norm()
}

// Lerp returns the point at parameter t on the segment p -> q.
func (p Point2D) Lerp(q Point2D, t float64) Point2D {
	return Point2D{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Unit returns p normalized to length 1. The zero vector is returned
// unchanged.
func (p Point2D) Unit() Point2D {
	n := p.Norm()
	if n == 0 {
		return p
	}
	return p.Scale(1 / n)
}

// Angle returns the direction of p in radians, in (-pi, pi].
func (p Point2D) Angle() float64 {
	return math.Atan2(p.Y, p.X)
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// XYZ lifts p into 3D at the given elevation.
func (p Point2D) XYZ(z float64) Point3D {
	return Point3D{p.X, p.Y, z}
}

// Add returns p + q.
func (p Point3D) Add(q Point3D) Point3D {
	return Point3D{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Scale returns p scaled by f.
func (p Point3D) Scale(f float64) Point3D {
	return Point3D{p.X * f, p.Y * f, p.Z * f}
}

// Norm returns the Euclidean length of p treated as a vector.
func (p Point3D) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

func (p Point3D) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}
