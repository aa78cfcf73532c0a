package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/textworld/internal/world"
)

// WorldRepository persists the room and portal tables. Rooms and portals are
// written once, at bootstrap, inside a single transaction; afterward they
// are only read back to rebuild the in-memory graph.
type WorldRepository struct {
	db *pgxpool.Pool
}

// NewWorldRepository creates a WorldRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewWorldRepository(db *pgxpool.Pool) *WorldRepository {
	return &WorldRepository{db: db}
}

// Empty reports whether no rooms exist yet. The bootstrap path uses this as
// the load guard: the map loader runs only against an empty world.
func (r *WorldRepository) Empty(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking for rooms: %w", err)
	}
	return !exists, nil
}

// SaveGraph persists every room and portal in g within one transaction,
// preserving the graph's ids. Either the whole graph is stored or none of
// it is.
//
// Precondition: the rooms and portals tables must be empty.
func (r *WorldRepository) SaveGraph(ctx context.Context, g *world.Graph) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, room := range g.Rooms() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO rooms (id, name, description) VALUES ($1, $2, $3)`,
			room.ID, room.Name, room.Description,
		); err != nil {
			return fmt.Errorf("inserting room %q: %w", room.Name, err)
		}
	}

	for _, p := range g.Portals() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO portals (id, source_id, direction, destination_id)
			 VALUES ($1, $2, $3, $4)`,
			p.ID, p.SourceID, string(p.Direction), p.DestinationID,
		); err != nil {
			return fmt.Errorf("inserting portal %d (%s): %w", p.ID, p.Direction, err)
		}
	}

	// Advance the serial sequences past the explicit ids.
	if _, err := tx.Exec(ctx,
		`SELECT setval(pg_get_serial_sequence('rooms', 'id'), (SELECT COALESCE(MAX(id), 1) FROM rooms))`,
	); err != nil {
		return fmt.Errorf("advancing rooms sequence: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`SELECT setval(pg_get_serial_sequence('portals', 'id'), (SELECT COALESCE(MAX(id), 1) FROM portals))`,
	); err != nil {
		return fmt.Errorf("advancing portals sequence: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing graph: %w", err)
	}
	return nil
}

// LoadGraph rebuilds the in-memory graph from the persisted rooms and
// portals. Row order follows ids so the rebuild is deterministic.
//
// Postcondition: returns a graph honoring the same invariants the loader
// enforces, or an error if the stored rows violate them.
func (r *WorldRepository) LoadGraph(ctx context.Context) (*world.Graph, error) {
	g := world.NewGraph()

	rows, err := r.db.Query(ctx,
		`SELECT id, name, description FROM rooms ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var room world.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Description); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		if err := g.AddRoom(&room); err != nil {
			return nil, fmt.Errorf("registering room %d: %w", room.ID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading room rows: %w", err)
	}
	rows.Close()

	portalRows, err := r.db.Query(ctx,
		`SELECT id, source_id, direction, destination_id FROM portals ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying portals: %w", err)
	}
	defer portalRows.Close()

	for portalRows.Next() {
		var p world.Portal
		var direction string
		if err := portalRows.Scan(&p.ID, &p.SourceID, &direction, &p.DestinationID); err != nil {
			return nil, fmt.Errorf("scanning portal row: %w", err)
		}
		p.Direction = world.Direction(direction)
		if err := g.InsertPortal(&p); err != nil {
			return nil, fmt.Errorf("registering portal %d: %w", p.ID, err)
		}
	}
	if err := portalRows.Err(); err != nil {
		return nil, fmt.Errorf("reading portal rows: %w", err)
	}

	return g, nil
}
