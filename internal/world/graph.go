package world

import (
	"fmt"
	"sort"
	"sync"
)

// Graph holds the room registry and the portal graph. It indexes portals by
// (source room, direction) so Resolve is O(1); movement never scans the full
// edge set.
//
// The graph is written once, during bootstrap, before any request is served.
// Reads after that point are lock-free in practice; the mutex exists so the
// graph is also safe for callers that construct it concurrently (tests).
type Graph struct {
	mu      sync.RWMutex
	rooms   map[int64]*Room
	byName  map[string]int64
	exits   map[int64]map[Direction]*Portal
	portals []*Portal

	nextRoomID   int64
	nextPortalID int64
	startRoom    int64
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		rooms:  make(map[int64]*Room),
		byName: make(map[string]int64),
		exits:  make(map[int64]map[Direction]*Portal),
	}
}

// CreateRoom allocates a new room with a fresh unique id.
//
// Postcondition: the room is registered and its id returned. Never fails;
// name collisions are the loader's concern, and FindByName keeps its
// first-match contract when they occur.
func (g *Graph) CreateRoom(name, description string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextRoomID++
	id := g.nextRoomID
	g.addRoomLocked(&Room{ID: id, Name: name, Description: description})
	return id
}

// AddRoom registers a room with an explicit id, as when rebuilding the graph
// from persisted rows.
//
// Postcondition: returns an error if the id is already registered.
func (g *Graph) AddRoom(r *Room) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.rooms[r.ID]; exists {
		return fmt.Errorf("duplicate room id %d", r.ID)
	}
	g.addRoomLocked(r)
	if r.ID > g.nextRoomID {
		g.nextRoomID = r.ID
	}
	return nil
}

func (g *Graph) addRoomLocked(r *Room) {
	g.rooms[r.ID] = r
	if _, taken := g.byName[r.Name]; !taken {
		g.byName[r.Name] = r.ID
	}
	if g.startRoom == 0 || r.ID < g.startRoom {
		g.startRoom = r.ID
	}
}

// AddPortal creates a directed edge from source to destination labeled with
// direction and returns its id.
//
// Postcondition: returns ErrInvalidReference if either room id is not
// registered, or ErrDuplicateDirection if the source room already has a
// portal with this direction. On error the graph is unchanged.
func (g *Graph) AddPortal(sourceID int64, direction Direction, destinationID int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[sourceID]; !ok {
		return 0, fmt.Errorf("source room %d: %w", sourceID, ErrInvalidReference)
	}
	if _, ok := g.rooms[destinationID]; !ok {
		return 0, fmt.Errorf("destination room %d: %w", destinationID, ErrInvalidReference)
	}
	if _, taken := g.exits[sourceID][direction]; taken {
		return 0, fmt.Errorf("room %d already has exit %q: %w", sourceID, direction, ErrDuplicateDirection)
	}

	g.nextPortalID++
	p := &Portal{
		ID:            g.nextPortalID,
		SourceID:      sourceID,
		Direction:     direction,
		DestinationID: destinationID,
	}
	g.insertPortalLocked(p)
	return p.ID, nil
}

// InsertPortal registers a portal with an explicit id, as when rebuilding
// from persisted rows. The same invariants as AddPortal apply.
func (g *Graph) InsertPortal(p *Portal) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[p.SourceID]; !ok {
		return fmt.Errorf("source room %d: %w", p.SourceID, ErrInvalidReference)
	}
	if _, ok := g.rooms[p.DestinationID]; !ok {
		return fmt.Errorf("destination room %d: %w", p.DestinationID, ErrInvalidReference)
	}
	if _, taken := g.exits[p.SourceID][p.Direction]; taken {
		return fmt.Errorf("room %d already has exit %q: %w", p.SourceID, p.Direction, ErrDuplicateDirection)
	}

	g.insertPortalLocked(p)
	if p.ID > g.nextPortalID {
		g.nextPortalID = p.ID
	}
	return nil
}

func (g *Graph) insertPortalLocked(p *Portal) {
	if g.exits[p.SourceID] == nil {
		g.exits[p.SourceID] = make(map[Direction]*Portal)
	}
	g.exits[p.SourceID][p.Direction] = p
	g.portals = append(g.portals, p)
}

// Room returns the room with the given id.
//
// Postcondition: returns (room, true) if found, or (nil, false) otherwise.
func (g *Graph) Room(id int64) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// FindByName returns the first room registered with the given name.
// Display names are not guaranteed unique through this interface; the map
// loader rejects duplicates, but graphs built by hand may collide, in which
// case the earliest registration wins.
func (g *Graph) FindByName(name string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.rooms[id], true
}

// Resolve returns the destination room id for movement from sourceID in the
// given direction. This is the core movement lookup.
//
// Postcondition: returns ErrRoomNotFound if sourceID is unknown, or
// ErrNoSuchExit if no portal leaves sourceID with this direction.
func (g *Graph) Resolve(sourceID int64, direction Direction) (int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.rooms[sourceID]; !ok {
		return 0, fmt.Errorf("room %d: %w", sourceID, ErrRoomNotFound)
	}
	p, ok := g.exits[sourceID][direction]
	if !ok {
		return 0, ErrNoSuchExit
	}
	return p.DestinationID, nil
}

// Outgoing returns all portals leaving the given room, sorted by direction
// for deterministic output. Unknown rooms yield an empty slice.
func (g *Graph) Outgoing(sourceID int64) []Portal {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := g.exits[sourceID]
	out := make([]Portal, 0, len(edges))
	for _, p := range edges {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Direction < out[j].Direction })
	return out
}

// StartRoom returns the bootstrap room id: the lowest room id in the graph,
// which for loaded maps is the first Room record in the file.
//
// Postcondition: returns (0, false) when the graph is empty.
func (g *Graph) StartRoom() (int64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.startRoom == 0 {
		return 0, false
	}
	return g.startRoom, true
}

// Rooms returns all rooms sorted by id.
func (g *Graph) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// Portals returns all portals sorted by id.
func (g *Graph) Portals() []*Portal {
	g.mu.RLock()
	defer g.mu.RUnlock()
	portals := make([]*Portal, 0, len(g.portals))
	portals = append(portals, g.portals...)
	sort.Slice(portals, func(i, j int) bool { return portals[i].ID < portals[j].ID })
	return portals
}

// RoomCount returns the number of registered rooms.
func (g *Graph) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// PortalCount returns the number of registered portals.
func (g *Graph) PortalCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.portals)
}
