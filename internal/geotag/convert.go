package geotag

import (
	"fmt"
	"math"
)

const (
	secondsPerDegree = 3600
	secondsPerMinute = 60
)

// ConversionError is returned when an angle cannot be expressed as a geotag.
// It only happens for non-finite or out-of-range input, which indicates
// a bug in the position source rather than a runtime condition.
type ConversionError struct {
	Angle float64
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("geotag: angle %v is not a finite geodetic angle", e.Angle)
}

// Tag is the EXIF representation of a geodetic angle: a hemisphere flag
// and an unsigned degrees, minutes, tenths-of-seconds triple
type Tag struct {
	Negative      bool   // South for latitude, west for longitude
	Degrees       uint32 // Encoded as Degrees/1
	Minutes       uint32 // Encoded as Minutes/1
	SecondsTenths uint32 // Encoded as SecondsTenths/10
}

// Convert splits a signed angle in degrees into a Tag.
//
// Each field is rounded independently, half away from zero. Seconds that
// round up to 60.0 are kept as is and are not carried into the minutes:
// readers reconstruct the same angle either way.
func Convert(angle float64) (Tag, error) {
	if math.IsNaN(angle) || math.IsInf(angle, 0) || math.Abs(angle) > 180 {
		return Tag{}, &ConversionError{Angle: angle}
	}

	total := math.Abs(angle) * secondsPerDegree
	minutesTotal := math.Floor(total / secondsPerMinute)
	seconds := total - minutesTotal*secondsPerMinute

	degrees := math.Floor(minutesTotal / 60)
	minutes := minutesTotal - degrees*60

	return Tag{
		Negative:      angle < 0,
		Degrees:       uint32(math.Round(degrees)),
		Minutes:       uint32(math.Round(minutes)),
		SecondsTenths: uint32(math.Round(seconds * 10)),
	}, nil
}

// Seconds returns the seconds component in arcseconds
func (t Tag) Seconds() float64 {
	return float64(t.SecondsTenths) / 10
}

// Decimal reconstructs the unsigned angle in degrees
func (t Tag) Decimal() float64 {
	return float64(t.Degrees) + float64(t.Minutes)/60 + t.Seconds()/secondsPerDegree
}

// Rationals returns the numerator/denominator pairs used by the EXIF GPS tags
func (t Tag) Rationals() [3][2]uint32 {
	return [3][2]uint32{
		{t.Degrees, 1},
		{t.Minutes, 1},
		{t.SecondsTenths, 10},
	}
}

// String formats the tag the way camera firmware expects it,
// e.g. 98° 34' 58.7" becomes "98/1,34/1,587/10"
func (t Tag) String() string {
	return fmt.Sprintf("%d/1,%d/1,%d/10", t.Degrees, t.Minutes, t.SecondsTenths)
}

// Metadata holds the four positional fields attached to an image
type Metadata struct {
	Latitude     Tag
	LatitudeRef  string // "N" or "S"
	Longitude    Tag
	LongitudeRef string // "E" or "W"
}

// NewMetadata converts a latitude/longitude pair into image metadata
func NewMetadata(latitude, longitude float64) (Metadata, error) {
	if math.Abs(latitude) > 90 {
		return Metadata{}, &ConversionError{Angle: latitude}
	}

	lat, err := Convert(latitude)
	if err != nil {
		return Metadata{}, err
	}
	lon, err := Convert(longitude)
	if err != nil {
		return Metadata{}, err
	}

	m := Metadata{
		Latitude:     lat,
		LatitudeRef:  "N",
		Longitude:    lon,
		LongitudeRef: "E",
	}
	if lat.Negative {
		m.LatitudeRef = "S"
	}
	if lon.Negative {
		m.LongitudeRef = "W"
	}

	return m, nil
}
