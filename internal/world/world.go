// Package world tiles each Z plane into biome zones and carves the rooms
// inside every zone as a maze.
package world

import (
	"fmt"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/vec"
)

// Rect is an axis-aligned rectangle with inclusive integer bounds.
type Rect struct {
	MinX int `json:"min_x" bson:"min_x"`
	MinY int `json:"min_y" bson:"min_y"`
	MaxX int `json:"max_x" bson:"max_x"`
	MaxY int `json:"max_y" bson:"max_y"`
}

// PointRect returns the 1x1 rectangle at (x, y).
func PointRect(x, y int) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x, MaxY: y}
}

// Width is the number of columns covered.
func (r Rect) Width() int { return r.MaxX - r.MinX + 1 }

// Height is the number of rows covered.
func (r Rect) Height() int { return r.MaxY - r.MinY + 1 }

// Area is the number of cells covered.
func (r Rect) Area() int { return r.Width() * r.Height() }

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Overlaps reports whether r and o share at least one cell.
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX && r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// Grow returns r extended by n cells on every side.
func (r Rect) Grow(n int) Rect {
	return Rect{MinX: r.MinX - n, MinY: r.MinY - n, MaxX: r.MaxX + n, MaxY: r.MaxY + n}
}

// Center returns the middle cell, rounding toward MinX/MinY.
func (r Rect) Center() (int, int) {
	return r.MinX + (r.Width()-1)/2, r.MinY + (r.Height()-1)/2
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d..%d,%d]", r.MinX, r.MinY, r.MaxX, r.MaxY)
}

// Zone is a rectangular region of one plane sharing a single biome.
// Geometry and biome never change after the zone is saved.
type Zone struct {
	ID        string      `json:"id" bson:"_id,omitempty"`
	Z         int         `json:"z" bson:"z"`
	Rect      Rect        `json:"rect" bson:"rect"`
	Elevation int         `json:"elevation" bson:"elevation"`
	Moisture  int         `json:"moisture" bson:"moisture"`
	Biome     biome.Biome `json:"biome" bson:"biome"`
}

// Contains reports whether the coordinate belongs to the zone.
func (z *Zone) Contains(c vec.Vec3) bool {
	return c.Z == z.Z && z.Rect.Contains(c.X, c.Y)
}

// Room is a traversable cell. Rooms are never deleted.
type Room struct {
	ID       string   `json:"id" bson:"_id,omitempty"`
	Location vec.Vec3 `json:"location" bson:"location"`
	ZoneID   string   `json:"zone_id" bson:"zone_id"`
}

// Cell is a coordinate under consideration while carving.
type Cell struct {
	X, Y, Z int
}

// CellOf converts a coordinate into a Cell.
func CellOf(c vec.Vec3) Cell {
	return Cell{X: c.X, Y: c.Y, Z: c.Z}
}

// Vec3 converts the cell back to a coordinate.
func (c Cell) Vec3() vec.Vec3 {
	return vec.Vec3{X: c.X, Y: c.Y, Z: c.Z}
}

// Step returns the axis-adjacent cell in direction d.
func (c Cell) Step(d vec.Direction) Cell {
	return Cell{X: c.X + d.DX, Y: c.Y + d.DY, Z: c.Z}
}
