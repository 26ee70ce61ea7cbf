// Package scoring converts the gap between a guess and the target
// location into points. Pure functions, no state.
package scoring

import "math"

const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance between two coordinates
// using the Haversine formula, rounded to the nearest kilometre.
func DistanceKm(lat1, lon1, lat2, lon2 float64) int {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return int(math.Round(earthRadiusKm * c))
}

// Points maps a distance in kilometres to a score: 5000 for a perfect
// guess, decaying exponentially towards zero.
func Points(distanceKm int) int {
	return int(math.Round(5000 * math.Exp(-float64(distanceKm)/1000)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
