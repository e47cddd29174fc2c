package vec

import (
	"fmt"
	"strings"
)

// Direction is a unit step between axis-adjacent cells.
type Direction struct {
	Name string
	DX   int
	DY   int
}

var (
	North = Direction{Name: "north", DX: 0, DY: 1}
	East  = Direction{Name: "east", DX: 1, DY: 0}
	South = Direction{Name: "south", DX: 0, DY: -1}
	West  = Direction{Name: "west", DX: -1, DY: 0}
)

// Directions lists the four cardinal directions in N, E, S, W order.
var Directions = [4]Direction{North, East, South, West}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return Direction{Name: opposites[d.Name], DX: -d.DX, DY: -d.DY}
}

var opposites = map[string]string{
	"north": "south",
	"south": "north",
	"east":  "west",
	"west":  "east",
}

// DirectionByName resolves a full name or its first letter.
func DirectionByName(name string) (Direction, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, d := range Directions {
		if name == d.Name || (len(name) == 1 && name[0] == d.Name[0]) {
			return d, nil
		}
	}
	return Direction{}, fmt.Errorf("unknown direction %q", name)
}
