// Package main provides the textworld server binary: it loads the world,
// connects to PostgreSQL, and serves the JSON API.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/textworld/internal/config"
	"github.com/cory-johannsen/textworld/internal/game/navigation"
	"github.com/cory-johannsen/textworld/internal/httpapi"
	"github.com/cory-johannsen/textworld/internal/observability"
	"github.com/cory-johannsen/textworld/internal/server"
	"github.com/cory-johannsen/textworld/internal/storage/postgres"
	"github.com/cory-johannsen/textworld/internal/world"
)

// Seed room used when the database is empty and no map file is configured,
// so registration always has a start room.
const (
	seedRoomName        = "The Entrance"
	seedRoomDescription = "You are at the entrance to a very creepy dungeon. You feel as though coming here may not have been a great idea."
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	worldRepo := postgres.NewWorldRepository(pool.DB())

	// World load is all-or-nothing and happens before the listener starts,
	// so no request ever sees a partially built graph.
	worldStart := time.Now()
	graph, err := bootstrapWorld(ctx, worldRepo, cfg.World, logger)
	if err != nil {
		logger.Fatal("loading world", zap.Error(err))
	}
	startRoom, ok := graph.StartRoom()
	if !ok {
		logger.Fatal("world has no rooms; registration would have no start room")
	}
	logger.Info("world loaded",
		zap.Int("rooms", graph.RoomCount()),
		zap.Int("portals", graph.PortalCount()),
		zap.Int64("start_room", startRoom),
		zap.Duration("elapsed", time.Since(worldStart)),
	)

	accounts := postgres.NewAccountRepository(pool.DB())
	occupancy := postgres.NewOccupancyStore(pool.DB())
	nav := navigation.NewService(graph, occupancy, logger)

	handler := httpapi.NewHandler(accounts, occupancy, nav, startRoom, logger)
	httpServer := httpapi.NewServer(cfg.HTTP, handler.Routes(), logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", httpServer)
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// bootstrapWorld returns the in-memory graph, seeding the database first if
// no rooms exist yet. The map loader runs only against an empty world; a
// populated database is authoritative and the configured map file is
// ignored on later starts.
func bootstrapWorld(ctx context.Context, repo *postgres.WorldRepository, cfg config.WorldConfig, logger *zap.Logger) (*world.Graph, error) {
	empty, err := repo.Empty(ctx)
	if err != nil {
		return nil, err
	}

	if empty {
		var graph *world.Graph
		if cfg.MapPath != "" {
			graph, err = world.LoadMapFile(cfg.MapPath)
			if err != nil {
				return nil, err
			}
			logger.Info("map file loaded",
				zap.String("path", cfg.MapPath),
				zap.Int("rooms", graph.RoomCount()),
				zap.Int("portals", graph.PortalCount()),
			)
		} else {
			graph = world.NewGraph()
			graph.CreateRoom(seedRoomName, seedRoomDescription)
			logger.Info("no map configured, seeded default room",
				zap.String("room", seedRoomName),
			)
		}
		if err := repo.SaveGraph(ctx, graph); err != nil {
			return nil, err
		}
	}

	return repo.LoadGraph(ctx)
}
