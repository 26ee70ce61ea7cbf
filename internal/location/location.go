// Package location holds the immutable list of guessable locations.
// The list lives in a sqlite table, seeded once from the bundled JSON
// file, and is loaded whole into memory at startup.
package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
)

// Location is one guessable spot: a coordinate plus the street-level
// video clip that shows it.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"long"`
	VideoID   string  `json:"vid"`
	StartTime int     `json:"start"`
}

// Dataset is a read-only snapshot of the location table. It is safe to
// share across sessions; Pick does not mutate it.
type Dataset struct {
	locations []Location
}

var ErrEmptyDataset = errors.New("location dataset is empty")

// NewDataset wraps an already-loaded list of locations. The caller
// must not mutate the slice afterwards.
func NewDataset(locations []Location) *Dataset {
	return &Dataset{locations: locations}
}

// Load reads every location into memory. It fails on an empty table so
// a misconfigured deployment surfaces at startup, not mid-game.
func Load(ctx context.Context, db *sql.DB) (*Dataset, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT latitude, longitude, video_id, start_time
		FROM locations
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.Latitude, &l.Longitude, &l.VideoID, &l.StartTime); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading locations: %w", err)
	}
	if len(locations) == 0 {
		return nil, ErrEmptyDataset
	}

	return &Dataset{locations: locations}, nil
}

// Pick returns a uniformly random location. Sampling is with
// replacement: consecutive picks may repeat.
func (d *Dataset) Pick(rng *rand.Rand) Location {
	return d.locations[rng.Intn(len(d.locations))]
}

func (d *Dataset) Len() int {
	return len(d.locations)
}
