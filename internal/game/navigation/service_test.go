package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/world"
)

// fixture builds the two-room world from the map format docs: Start north
// to End, no reverse portal, with one user assigned to Start.
type fixture struct {
	svc     *Service
	tracker *world.Tracker
	graph   *world.Graph
	start   int64
	end     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	g := world.NewGraph()
	start := g.CreateRoom("Start", "You are at start.")
	end := g.CreateRoom("End", "You are at the end.")
	_, err := g.AddPortal(start, world.North, end)
	require.NoError(t, err)

	tracker := world.NewTracker()
	require.NoError(t, tracker.Assign(context.Background(), world.Occupant{UserID: 1, Username: "alice"}, start))

	return &fixture{
		svc:     NewService(g, tracker, zap.NewNop()),
		tracker: tracker,
		graph:   g,
		start:   start,
		end:     end,
	}
}

func TestLook(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Look(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, f.start, result.RoomID)
	assert.Equal(t, "Start", result.RoomName)
	assert.Equal(t, "You are at start.", result.RoomDescription)
	assert.Equal(t, []string{"alice"}, result.Occupants)
}

func TestLook_MultipleOccupants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tracker.Assign(ctx, world.Occupant{UserID: 2, Username: "bob"}, f.start))

	result, err := f.svc.Look(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, result.Occupants)
}

func TestLook_NoLocation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Look(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNoLocation)
}

func TestMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Move(ctx, 1, "north")
	require.NoError(t, err)
	assert.Equal(t, f.end, result.RoomID)

	// A follow-up look sees the new room, and the old room is empty.
	look, err := f.svc.Look(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "End", look.RoomName)
	assert.Equal(t, []string{"alice"}, look.Occupants)

	old, err := f.tracker.Occupants(ctx, f.start)
	require.NoError(t, err)
	assert.Empty(t, old)
}

func TestMove_NoSuchExit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Move(ctx, 1, "west")
	assert.ErrorIs(t, err, world.ErrNoSuchExit)

	// Occupancy is unchanged.
	loc, err := f.tracker.Locate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, f.start, loc)
}

func TestMove_NoReversePortal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Move(ctx, 1, "north")
	require.NoError(t, err)

	// Portals are directional; there is no way back south.
	_, err = f.svc.Move(ctx, 1, "south")
	assert.ErrorIs(t, err, world.ErrNoSuchExit)
}

func TestMove_CaseSensitiveDirection(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Move(context.Background(), 1, "North")
	assert.ErrorIs(t, err, world.ErrNoSuchExit)
}

func TestMove_NoLocation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Move(context.Background(), 99, "north")
	assert.ErrorIs(t, err, ErrNoLocation)
}

func TestMove_ThenLookRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.svc.Look(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Start", before.RoomName)

	moved, err := f.svc.Move(ctx, 1, "north")
	require.NoError(t, err)

	after, err := f.svc.Look(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, moved.RoomID, after.RoomID)
	assert.Equal(t, "End", after.RoomName)
}
