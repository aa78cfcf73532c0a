// Package world provides the navigable world model: rooms, portals, and
// directions, plus the map loader and occupancy tracking.
package world

// Direction is the label on a portal, used as the traversal key.
// Matching is exact and case-sensitive.
type Direction string

// Standard compass directions and vertical movements.
const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Northeast Direction = "northeast"
	Northwest Direction = "northwest"
	Southeast Direction = "southeast"
	Southwest Direction = "southwest"
	Up        Direction = "up"
	Down      Direction = "down"
)

// StandardDirections contains all standard compass and vertical directions.
var StandardDirections = []Direction{
	North, South, East, West,
	Northeast, Northwest, Southeast, Southwest,
	Up, Down,
}

// IsStandard reports whether d is one of the ten standard directions.
// Map files may also define custom labels ("portal", "stairs"); those are
// valid traversal keys but have no opposite.
func (d Direction) IsStandard() bool {
	for _, sd := range StandardDirections {
		if d == sd {
			return true
		}
	}
	return false
}

// Opposite returns the opposite of a standard direction.
// For custom directions, it returns an empty string.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Northeast:
		return Southwest
	case Southwest:
		return Northeast
	case Northwest:
		return Southeast
	case Southeast:
		return Northwest
	case Up:
		return Down
	case Down:
		return Up
	default:
		return ""
	}
}

// Room is a location in the world. Rooms are created by the map loader (or
// the bootstrap seed) and are immutable afterward; there is no runtime
// room-editing operation.
type Room struct {
	// ID uniquely identifies the room.
	ID int64
	// Name is the display name. The loader rejects duplicate names so that
	// portal records resolve deterministically.
	Name string
	// Description is the free text shown to occupants.
	Description string
}

// Portal is a directed, labeled edge between two rooms. Portals are not
// implicitly bidirectional; return travel requires a separate portal.
type Portal struct {
	// ID uniquely identifies the portal.
	ID int64
	// SourceID is the room the portal leads out of.
	SourceID int64
	// Direction is the traversal label, unique per source room.
	Direction Direction
	// DestinationID is the room the portal leads into.
	DestinationID int64
}

// Occupant identifies a user currently located in a room.
type Occupant struct {
	// UserID is the authenticated user identity.
	UserID int64
	// Username is the display name shown by look.
	Username string
}
