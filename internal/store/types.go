package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// AttractionFilter narrows ListAttractions. Zero values disable a filter.
type AttractionFilter struct {
	Category string
	Search   string
	// Near, when set, restricts results to a bounding box of RadiusKm around it.
	Near     *GeoPoint
	RadiusKm float64
	Limit    int
	Offset   int
}

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// kmPerDegree approximates one degree of latitude.
const kmPerDegree = 111.0

// ObservationFilter narrows ListObservations.
type ObservationFilter struct {
	AttractionID      uuid.UUID
	Start             *time.Time
	End               *time.Time
	DataSource        string
	Limit             int
	IncludeAttraction bool
}
