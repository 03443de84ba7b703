// Package geo provides great-circle distance between coordinates.
package geo

import (
	"math"

	"github.com/Itskartike/globaleats/domain"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b in
// kilometres. It is symmetric and returns 0 for identical points.
func DistanceKm(a, b domain.Coordinate) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
