package location

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
)

//go:embed seed.json
var seedJSON []byte

// Seed inserts the bundled locations if the table is empty.
// Idempotent: does nothing once any rows exist.
func Seed(ctx context.Context, logger *slog.Logger, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM locations").Scan(&count); err != nil {
		return fmt.Errorf("counting locations: %w", err)
	}
	if count > 0 {
		return nil
	}

	var locations []Location
	if err := json.Unmarshal(seedJSON, &locations); err != nil {
		return fmt.Errorf("parsing seed data: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, l := range locations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO locations (latitude, longitude, video_id, start_time)
			VALUES (?, ?, ?, ?)
		`, l.Latitude, l.Longitude, l.VideoID, l.StartTime)
		if err != nil {
			return fmt.Errorf("inserting location %q: %w", l.VideoID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}

	logger.Info("location table seeded", "count", len(locations))
	return nil
}
