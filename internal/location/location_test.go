package location_test

import (
	"context"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/cityguessr/server/internal/database"
	"github.com/cityguessr/server/internal/location"
	"github.com/cityguessr/server/internal/migrations"
)

func setupDB(t *testing.T) *location.Dataset {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	if err := location.Seed(ctx, slog.Default(), db); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	// Seeding again must be a no-op.
	if err := location.Seed(ctx, slog.Default(), db); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	ds, err := location.Load(ctx, db)
	if err != nil {
		t.Fatalf("loading dataset: %v", err)
	}
	return ds
}

func TestSeedAndLoad(t *testing.T) {
	ds := setupDB(t)

	if ds.Len() == 0 {
		t.Fatal("expected a non-empty dataset")
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		l := ds.Pick(rng)
		if l.VideoID == "" {
			t.Errorf("picked location with empty video id: %+v", l)
		}
		if l.Latitude < -90 || l.Latitude > 90 {
			t.Errorf("latitude out of range: %v", l.Latitude)
		}
		if l.Longitude < -180 || l.Longitude > 180 {
			t.Errorf("longitude out of range: %v", l.Longitude)
		}
	}
}

func TestLoadEmptyTable(t *testing.T) {
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	if _, err := location.Load(ctx, db); err == nil {
		t.Fatal("expected an error loading an empty table")
	}
}
