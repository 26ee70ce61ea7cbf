package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cityguessr/server/internal/config"
	"github.com/cityguessr/server/internal/database"
	"github.com/cityguessr/server/internal/game"
	"github.com/cityguessr/server/internal/location"
	"github.com/cityguessr/server/internal/migrations"
	"github.com/cityguessr/server/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Location dataset ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if err := location.Seed(ctx, logger, db); err != nil {
		return fmt.Errorf("seeding locations: %w", err)
	}
	locations, err := location.Load(ctx, db)
	if err != nil {
		return fmt.Errorf("loading locations: %w", err)
	}
	logger.Info("location dataset loaded", "count", locations.Len())

	// --- Rooms ---
	rules := game.Rules{
		Rounds:       cfg.Rounds,
		RoundLength:  cfg.RoundLength,
		StartDelay:   cfg.StartDelay,
		Intermission: cfg.Intermission,
	}
	rooms := game.NewRegistry(logger, func(id string) *game.Session {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		return game.NewSession(id, logger, locations, rules, rng)
	})

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, rooms, db, cfg.SPADir)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return rooms.Sweep(gctx, time.Minute, cfg.RoomTTL)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
