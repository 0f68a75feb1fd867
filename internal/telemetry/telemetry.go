package telemetry

import (
	"context"
	"errors"
	"time"
)

// ErrNoReading is returned when a sensor answers without usable data
var ErrNoReading = errors.New("sensor returned no reading")

// Provider reads one snapshot of the environment and orientation sensors
type Provider interface {
	Read(ctx context.Context) (*Telemetry, error)
}

// Telemetry is the environment and orientation snapshot from the sensor board
type Telemetry struct {
	Timestamp   time.Time `json:"timestamp"`   // Timestamp of telemetry measurement
	Humidity    float64   `json:"humidity"`    // Relative humidity in %
	Temperature float64   `json:"temperature"` // Temperature in °C
	Pressure    float64   `json:"pressure"`    // Pressure in millibars
	Pitch       float64   `json:"pitch"`       // Pitch angle in degrees
	Roll        float64   `json:"roll"`        // Roll angle in degrees
	Yaw         float64   `json:"yaw"`         // Yaw angle in degrees
	Compass     float64   `json:"compass"`     // Heading from magnetic north in degrees
}
