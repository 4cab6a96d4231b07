package terrain

import "time"

// EventDestructed is published on the bus after every Destruct call. The
// event data is a Destruction.
const EventDestructed = "terrain.destructed"

// Destruction records one circular explosion.
type Destruction struct {
	ID     string    `json:"id"`
	X      uint32    `json:"x"`
	Y      uint32    `json:"y"`
	Radius uint32    `json:"radius"`
	At     time.Time `json:"at"`
}
