package geo

import (
	"testing"

	"github.com/Itskartike/globaleats/domain"
	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	p := domain.Coordinate{Latitude: 28.6139, Longitude: 77.2090}
	assert.Equal(t, 0.0, DistanceKm(p, p))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := []struct{ a, b domain.Coordinate }{
		{domain.Coordinate{Latitude: 28.6139, Longitude: 77.2090}, domain.Coordinate{Latitude: 19.0760, Longitude: 72.8777}},
		{domain.Coordinate{Latitude: -33.8688, Longitude: 151.2093}, domain.Coordinate{Latitude: 51.5074, Longitude: -0.1278}},
		{domain.Coordinate{Latitude: 0, Longitude: 179.9}, domain.Coordinate{Latitude: 0, Longitude: -179.9}},
	}

	for _, p := range pairs {
		assert.InDelta(t, DistanceKm(p.a, p.b), DistanceKm(p.b, p.a), 1e-9)
	}
}

func TestDistanceKm_KnownDistances(t *testing.T) {
	// Delhi (Connaught Place) to Mumbai (CST), ~1164 km great-circle.
	delhi := domain.Coordinate{Latitude: 28.6139, Longitude: 77.2090}
	mumbai := domain.Coordinate{Latitude: 18.9398, Longitude: 72.8355}
	assert.InDelta(t, 1164, DistanceKm(delhi, mumbai), 10)

	// One degree of latitude along a meridian is ~111.19 km on the mean sphere.
	a := domain.Coordinate{Latitude: 10, Longitude: 20}
	b := domain.Coordinate{Latitude: 11, Longitude: 20}
	assert.InDelta(t, 111.19, DistanceKm(a, b), 0.2)
}

func TestDistanceKm_ShortRange(t *testing.T) {
	// ~3 km apart within one city; haversine must stay accurate at small scales.
	a := domain.Coordinate{Latitude: 28.6139, Longitude: 77.2090}
	b := domain.Coordinate{Latitude: 28.6139, Longitude: 77.2396}
	d := DistanceKm(a, b)
	assert.Greater(t, d, 2.5)
	assert.Less(t, d, 3.5)
}
