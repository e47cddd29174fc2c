package vec

import "math"

// Vec2 is a planar integer coordinate.
type Vec2 struct {
	X, Y int
}

// DistanceTo returns the euclidean distance to other.
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// WithZ lifts the point onto plane z.
func (v Vec2) WithZ(z int) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: z}
}
