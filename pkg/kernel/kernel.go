// Package kernel defines the abstract geometry kernel interface used to
// turn duct centerlines into 3D solids. Implementations provide solid
// modeling and boolean operations behind this interface so backends can
// be swapped without touching the converter.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
//
// Primitives are created centered at the origin: boxes and cylinders on
// their centroid with the extrusion axis along Z, elbows as a torus
// segment in the XY plane centered on the origin, starting on the +X
// axis and sweeping counterclockwise through angleRad. The converter
// positions them with Translate and Rotate.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	// Elbow is a circular-section bend: a tube of tubeRadius swept
	// through angleRad around a centerline of bendRadius.
	Elbow(bendRadius, tubeRadius, angleRad float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
