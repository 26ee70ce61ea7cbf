package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/locations.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	// Game pacing: three rounds of two minutes each by default, with a
	// short countdown before round one.
	Rounds       int           `env:"ROUNDS" envDefault:"3"`
	RoundLength  time.Duration `env:"ROUND_LENGTH" envDefault:"120s"`
	StartDelay   time.Duration `env:"START_DELAY" envDefault:"3s"`
	Intermission time.Duration `env:"INTERMISSION" envDefault:"10s"`

	// RoomTTL is how long a room with no connected players survives
	// before the registry sweep removes it.
	RoomTTL time.Duration `env:"ROOM_TTL" envDefault:"1h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
