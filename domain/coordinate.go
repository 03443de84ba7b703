package domain

import (
	"errors"
	"fmt"
	"math"
)

// Coordinate is a WGS84 point. Both fields must be finite; latitude in
// [-90, 90], longitude in [-180, 180].
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

var ErrInvalidCoordinate = errors.New("invalid coordinate")

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("%w: latitude and longitude must be finite", ErrInvalidCoordinate)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}
