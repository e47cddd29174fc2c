package vec

import "fmt"

// Vec3 is an integer world coordinate. Z is the plane index.
type Vec3 struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
	Z int `json:"z" bson:"z"`
}

// ToVec2 drops the plane index.
func (v Vec3) ToVec2() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// Equals reports whether both coordinates are identical.
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add returns the component-wise sum.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Step moves one unit in the given direction on the same plane.
func (v Vec3) Step(d Direction) Vec3 {
	return Vec3{X: v.X + d.DX, Y: v.Y + d.DY, Z: v.Z}
}

// ManhattanTo returns the taxicab distance to other.
func (v Vec3) ManhattanTo(other Vec3) int {
	return abs(v.X-other.X) + abs(v.Y-other.Y) + abs(v.Z-other.Z)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
