package world

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Tracker maintains the current-room association for each user in memory,
// with a reverse index of per-room occupant sets. All methods are safe for
// concurrent use; the single mutex makes every move atomic with respect to
// concurrent occupant reads and concurrent moves of the same user, while
// moves of different users never conflict on data.
//
// The postgres occupancy store is the production implementation; Tracker
// backs unit tests and single-process deployments with no database.
type Tracker struct {
	mu       sync.RWMutex
	location map[int64]int64          // user id → room id
	names    map[int64]string         // user id → username
	roomSets map[int64]map[int64]bool // room id → set of user ids
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		location: make(map[int64]int64),
		names:    make(map[int64]string),
		roomSets: make(map[int64]map[int64]bool),
	}
}

// Locate returns the current room id for the given user.
//
// Postcondition: returns ErrNotAssigned when the user has no room.
func (t *Tracker) Locate(_ context.Context, userID int64) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	roomID, ok := t.location[userID]
	if !ok {
		return 0, fmt.Errorf("user %d: %w", userID, ErrNotAssigned)
	}
	return roomID, nil
}

// Occupants returns everyone currently located in the given room, sorted by
// user id. Unknown rooms yield an empty slice.
func (t *Tracker) Occupants(_ context.Context, roomID int64) ([]Occupant, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set := t.roomSets[roomID]
	out := make([]Occupant, 0, len(set))
	for uid := range set {
		out = append(out, Occupant{UserID: uid, Username: t.names[uid]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Assign unconditionally places a user in a room. It is called exactly once
// per user, at creation time, with the bootstrap room.
func (t *Tracker) Assign(_ context.Context, user Occupant, roomID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.location[user.UserID]; ok {
		t.removeLocked(user.UserID, old)
	}
	t.names[user.UserID] = user.Username
	t.placeLocked(user.UserID, roomID)
	return nil
}

// Move migrates a user from their current room to the destination as one
// atomic unit: no reader observes the user in both rooms or in neither.
//
// Postcondition: returns ErrNotAssigned when the user has no current room.
func (t *Tracker) Move(_ context.Context, userID int64, destinationID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.location[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, ErrNotAssigned)
	}

	t.removeLocked(userID, current)
	t.placeLocked(userID, destinationID)
	return nil
}

func (t *Tracker) placeLocked(userID, roomID int64) {
	t.location[userID] = roomID
	if t.roomSets[roomID] == nil {
		t.roomSets[roomID] = make(map[int64]bool)
	}
	t.roomSets[roomID][userID] = true
}

func (t *Tracker) removeLocked(userID, roomID int64) {
	if set, ok := t.roomSets[roomID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(t.roomSets, roomID)
		}
	}
	delete(t.location, userID)
}
