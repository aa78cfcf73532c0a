// Package navigation composes the room graph and occupancy tracking into the
// look and move operations exposed to the API layer.
package navigation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/world"
)

// ErrNoLocation is returned when the user has no current room. Every fully
// initialized user has exactly one room, so this signals an invariant breach
// to surface as a distinct client-visible error rather than a crash.
var ErrNoLocation = errors.New("user has no location")

// Graph defines the world lookups required by the Service.
type Graph interface {
	Room(id int64) (*world.Room, bool)
	Resolve(sourceID int64, direction world.Direction) (int64, error)
	Outgoing(sourceID int64) []world.Portal
}

// Occupancy defines the user-location operations required by the Service.
type Occupancy interface {
	Locate(ctx context.Context, userID int64) (int64, error)
	Occupants(ctx context.Context, roomID int64) ([]world.Occupant, error)
	Move(ctx context.Context, userID int64, destinationID int64) error
}

// LookResult describes the user's current room and its occupants.
type LookResult struct {
	RoomID          int64
	RoomName        string
	RoomDescription string
	Occupants       []string
}

// MoveResult reports the destination of a successful move.
type MoveResult struct {
	RoomID int64
}

// Service answers "where am I" and "attempt to move in direction D" for
// authenticated users. It holds no per-request state; each call is evaluated
// independently and may run concurrently with others.
type Service struct {
	graph     Graph
	occupancy Occupancy
	logger    *zap.Logger
}

// NewService creates a navigation Service.
//
// Precondition: graph, occupancy, and logger must be non-nil. The graph must
// be fully loaded before the first call; it is read-only from here on.
func NewService(graph Graph, occupancy Occupancy, logger *zap.Logger) *Service {
	return &Service{
		graph:     graph,
		occupancy: occupancy,
		logger:    logger,
	}
}

// Look returns the user's current room and everyone else in it.
//
// Postcondition: returns ErrNoLocation if the user has no room assignment.
func (s *Service) Look(ctx context.Context, userID int64) (LookResult, error) {
	roomID, err := s.occupancy.Locate(ctx, userID)
	if err != nil {
		if errors.Is(err, world.ErrNotAssigned) {
			return LookResult{}, fmt.Errorf("user %d: %w", userID, ErrNoLocation)
		}
		return LookResult{}, fmt.Errorf("locating user %d: %w", userID, err)
	}

	room, ok := s.graph.Room(roomID)
	if !ok {
		return LookResult{}, fmt.Errorf("user %d located in unknown room %d: %w", userID, roomID, world.ErrRoomNotFound)
	}

	occupants, err := s.occupancy.Occupants(ctx, roomID)
	if err != nil {
		return LookResult{}, fmt.Errorf("listing occupants of room %d: %w", roomID, err)
	}

	names := make([]string, 0, len(occupants))
	for _, o := range occupants {
		names = append(names, o.Username)
	}

	return LookResult{
		RoomID:          room.ID,
		RoomName:        room.Name,
		RoomDescription: room.Description,
		Occupants:       names,
	}, nil
}

// Move attempts to traverse the portal leaving the user's current room in
// the given direction, migrating the user on success.
//
// Postcondition: returns ErrNoLocation if the user has no room, or
// world.ErrNoSuchExit if no portal matches; the latter is an expected
// outcome and occupancy is left unchanged.
func (s *Service) Move(ctx context.Context, userID int64, direction string) (MoveResult, error) {
	current, err := s.occupancy.Locate(ctx, userID)
	if err != nil {
		if errors.Is(err, world.ErrNotAssigned) {
			return MoveResult{}, fmt.Errorf("user %d: %w", userID, ErrNoLocation)
		}
		return MoveResult{}, fmt.Errorf("locating user %d: %w", userID, err)
	}

	dest, err := s.graph.Resolve(current, world.Direction(direction))
	if err != nil {
		if errors.Is(err, world.ErrNoSuchExit) {
			s.logger.Debug("no exit",
				zap.Int64("user_id", userID),
				zap.Int64("room_id", current),
				zap.String("direction", direction),
			)
			return MoveResult{}, world.ErrNoSuchExit
		}
		return MoveResult{}, fmt.Errorf("resolving exit %q from room %d: %w", direction, current, err)
	}

	if err := s.occupancy.Move(ctx, userID, dest); err != nil {
		return MoveResult{}, fmt.Errorf("moving user %d to room %d: %w", userID, dest, err)
	}

	s.logger.Info("user moved",
		zap.Int64("user_id", userID),
		zap.Int64("from_room", current),
		zap.Int64("to_room", dest),
		zap.String("direction", direction),
	)

	return MoveResult{RoomID: dest}, nil
}
