// Package entity places entities in generated rooms and walks them between rooms.
package entity

import (
	"errors"

	"github.com/annel0/mmo-worldgen/internal/storage"
	"github.com/annel0/mmo-worldgen/internal/vec"
	"github.com/annel0/mmo-worldgen/internal/world"
)

var (
	// ErrCannotGo is returned when the target coordinate is a wall.
	ErrCannotGo = errors.New("Alas, you cannot go that way.")

	ErrUnknownEntity = errors.New("unknown entity")
)

// Entity is anything that occupies a room.
type Entity struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location vec.Vec3 `json:"location"`
}

func fromPosition(p storage.EntityPosition) Entity {
	return Entity{ID: p.EntityID, Name: p.Name, Location: p.Location}
}

// Placement is an entity together with the room and zone it stands in.
type Placement struct {
	Entity Entity      `json:"entity"`
	Room   *world.Room `json:"room"`
	Zone   *world.Zone `json:"zone"`
}
