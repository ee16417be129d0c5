package model

import "time"

// Location is a charger, hotel or other point of interest shown on the map.
// Type carries the source layer name (e.g. "Superchargers").
type Location struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Longitude   *float64  `json:"longitude"`
	Latitude    *float64  `json:"latitude"`
	MapsLink    string    `json:"maps_link"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasCoordinates reports whether both coordinates are set.
func (l *Location) HasCoordinates() bool {
	return l.Longitude != nil && l.Latitude != nil
}

// TypeCount is the number of locations of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}
