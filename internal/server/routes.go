package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/cityguessr/server/internal/game"
)

func addRoutes(r chi.Router, logger *slog.Logger, rooms *game.Registry, db *sql.DB, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("CityGuessr API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))
	r.Get("/ws/echo", handleWSEcho(logger))

	// Room lifecycle: create over plain HTTP, join over WebSocket.
	r.Route("/api/game", func(r chi.Router) {
		r.Post("/{room}", handleCreateRoom(logger, rooms))
		r.Get("/{room}", handleJoinRoom(logger, rooms))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
