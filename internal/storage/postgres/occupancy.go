package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/textworld/internal/world"
)

// OccupancyStore is the database-backed occupancy tracker: the current-room
// association lives in the users.location_id column. Moves are single-row
// UPDATEs, so PostgreSQL's row locking serializes concurrent moves of the
// same user while moves of different users proceed fully in parallel.
type OccupancyStore struct {
	db *pgxpool.Pool
}

// NewOccupancyStore creates an OccupancyStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewOccupancyStore(db *pgxpool.Pool) *OccupancyStore {
	return &OccupancyStore{db: db}
}

// Locate returns the current room id for the given user.
//
// Postcondition: returns world.ErrNotAssigned when the user does not exist
// or has no location yet.
func (s *OccupancyStore) Locate(ctx context.Context, userID int64) (int64, error) {
	var location *int64
	err := s.db.QueryRow(ctx,
		`SELECT location_id FROM users WHERE id = $1`,
		userID,
	).Scan(&location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user %d: %w", userID, world.ErrNotAssigned)
		}
		return 0, fmt.Errorf("querying location: %w", err)
	}
	if location == nil {
		return 0, fmt.Errorf("user %d: %w", userID, world.ErrNotAssigned)
	}
	return *location, nil
}

// Occupants returns everyone currently located in the given room, ordered by
// user id.
func (s *OccupancyStore) Occupants(ctx context.Context, roomID int64) ([]world.Occupant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, username FROM users WHERE location_id = $1 ORDER BY id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying occupants: %w", err)
	}
	defer rows.Close()

	occupants := make([]world.Occupant, 0)
	for rows.Next() {
		var o world.Occupant
		if err := rows.Scan(&o.UserID, &o.Username); err != nil {
			return nil, fmt.Errorf("scanning occupant row: %w", err)
		}
		occupants = append(occupants, o)
	}
	return occupants, rows.Err()
}

// Assign unconditionally places a user in a room. Called exactly once per
// user, at creation, with the bootstrap room.
//
// Postcondition: returns ErrAccountNotFound if the user row does not exist.
func (s *OccupancyStore) Assign(ctx context.Context, user world.Occupant, roomID int64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET location_id = $2 WHERE id = $1`,
		user.UserID, roomID,
	)
	if err != nil {
		return fmt.Errorf("assigning location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", user.UserID, ErrAccountNotFound)
	}
	return nil
}

// Move migrates a user to the destination room. The single UPDATE leaves the
// old room and joins the new one atomically; no reader can observe the user
// in both rooms or in neither.
//
// Postcondition: returns world.ErrNotAssigned when the user does not exist
// or has no current room.
func (s *OccupancyStore) Move(ctx context.Context, userID int64, destinationID int64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET location_id = $2
		 WHERE id = $1 AND location_id IS NOT NULL`,
		userID, destinationID,
	)
	if err != nil {
		return fmt.Errorf("moving user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, world.ErrNotAssigned)
	}
	return nil
}
