package scoring_test

import (
	"testing"

	"github.com/cityguessr/server/internal/scoring"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   int
	}{
		{"same point", 51.5, -0.12, 51.5, -0.12, 0},
		{"one degree north", 51.5, -0.12, 52.5, -0.12, 111},
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522, 344},
		{"antipodal-ish", 0, 0, 0, 180, 20015},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoring.DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if got != tt.want {
				t.Errorf("DistanceKm = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := scoring.DistanceKm(51.5, -0.12, 35.6762, 139.6503)
	b := scoring.DistanceKm(35.6762, 139.6503, 51.5, -0.12)
	if a != b {
		t.Errorf("distance not symmetric: %d vs %d", a, b)
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		distanceKm int
		want       int
	}{
		{0, 5000},
		{111, 4475},
		{1000, 1839},
		{20000, 0},
	}

	for _, tt := range tests {
		got := scoring.Points(tt.distanceKm)
		if got != tt.want {
			t.Errorf("Points(%d) = %d, want %d", tt.distanceKm, got, tt.want)
		}
	}
}

func TestPointsMonotonic(t *testing.T) {
	prev := scoring.Points(0)
	for d := 1; d <= 25000; d += 37 {
		p := scoring.Points(d)
		if p > prev {
			t.Fatalf("Points(%d) = %d exceeds Points at shorter distance %d", d, p, prev)
		}
		if p < 0 {
			t.Fatalf("Points(%d) = %d is negative", d, p)
		}
		prev = p
	}
}
