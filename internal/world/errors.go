package world

import "errors"

// ErrRoomNotFound is returned when a room lookup yields no results.
var ErrRoomNotFound = errors.New("room not found")

// ErrInvalidReference is returned when a portal references a room id that
// does not exist in the graph.
var ErrInvalidReference = errors.New("portal references unknown room")

// ErrDuplicateDirection is returned when a portal would reuse a direction
// already bound on the same source room. An ambiguous graph must never be
// constructed.
var ErrDuplicateDirection = errors.New("duplicate direction on source room")

// ErrDuplicateRoomName is returned by the loader when a map file defines two
// rooms with the same name. Portal records resolve rooms by name, so
// colliding names would make graph construction non-deterministic.
var ErrDuplicateRoomName = errors.New("duplicate room name")

// ErrUnknownRoom is returned by the loader when a portal record names a room
// that has not been defined yet. Rooms must appear before portals that
// reference them.
var ErrUnknownRoom = errors.New("unknown room name")

// ErrMalformedRecord is returned by the loader for an unrecognized record
// tag or a record with the wrong number of fields. Malformed input aborts
// the load; it is never silently skipped.
var ErrMalformedRecord = errors.New("malformed map record")

// ErrNoSuchExit is returned by Resolve when no portal leaves the source room
// in the requested direction. This is an expected outcome of movement, not a
// system fault.
var ErrNoSuchExit = errors.New("no exit in that direction")

// ErrNotAssigned is returned when a user has no current room.
var ErrNotAssigned = errors.New("user has no current room")
