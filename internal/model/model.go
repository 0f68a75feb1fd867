package model

import "time"

// Position is the sub-satellite point of the tracked spacecraft at Timestamp
type Position struct {
	Timestamp time.Time // Time the position was computed for
	Latitude  float64   // Geodetic latitude in degrees, negative south
	Longitude float64   // Geodetic longitude in degrees, negative west
	Altitude  float64   // Altitude above the ellipsoid in kilometres
}

// Sample is the snapshot gathered during one acquisition iteration.
// It is created once, appended to the record store and then dropped.
type Sample struct {
	Timestamp   time.Time // Wall-clock time the sample was assembled
	Sequence    uint64    // Sequence number, shared with the captured image
	Humidity    float64   // Relative humidity in %
	Temperature float64   // Temperature in °C
	Pressure    float64   // Pressure in millibars
	Pitch       float64   // Pitch in degrees
	Roll        float64   // Roll in degrees
	Yaw         float64   // Yaw in degrees
	Compass     float64   // Compass heading in degrees from magnetic north
	Position    Position  // Orbital position the image is tagged with
	Place       string    // Nearest place label for the position
}
