package geocode

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

//go:embed places.csv
var placesCSV []byte

const earthRadiusKm = 6371.0

// ErrEmptyGazetteer is returned when a gazetteer has no places to match against
var ErrEmptyGazetteer = errors.New("gazetteer has no places")

// Locator derives a human-readable place label for a position
type Locator interface {
	Locate(latitude, longitude float64) (string, error)
}

// Place is a named populated place
type Place struct {
	Name      string
	Country   string
	Latitude  float64
	Longitude float64
}

// Gazetteer resolves a position to the nearest known place.
// It works offline; the result is a label, not an address.
type Gazetteer struct {
	places []Place
}

// NewGazetteer loads the built-in list of places
func NewGazetteer() (*Gazetteer, error) {
	return LoadGazetteer(bytes.NewReader(placesCSV))
}

// LoadGazetteer reads places from CSV with a name,country,latitude,longitude header
func LoadGazetteer(r io.Reader) (*Gazetteer, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading places: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyGazetteer
	}

	places := make([]Place, 0, len(records)-1)
	for i, rec := range records[1:] {
		lat, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing latitude on line %d: %w", i+2, err)
		}
		lon, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing longitude on line %d: %w", i+2, err)
		}

		places = append(places, Place{Name: rec[0], Country: rec[1], Latitude: lat, Longitude: lon})
	}

	return &Gazetteer{places: places}, nil
}

// Nearest returns the closest place and its great-circle distance in kilometres
func (g *Gazetteer) Nearest(latitude, longitude float64) (Place, float64, error) {
	if len(g.places) == 0 {
		return Place{}, 0, ErrEmptyGazetteer
	}
	if math.IsNaN(latitude) || math.IsNaN(longitude) {
		return Place{}, 0, fmt.Errorf("invalid position %v, %v", latitude, longitude)
	}

	best, bestDist := g.places[0], math.Inf(1)
	for _, p := range g.places {
		if d := haversine(latitude, longitude, p.Latitude, p.Longitude); d < bestDist {
			best, bestDist = p, d
		}
	}

	return best, bestDist, nil
}

// Locate labels the position with the nearest place, e.g. "Sydney, AU (12 km)"
func (g *Gazetteer) Locate(latitude, longitude float64) (string, error) {
	p, dist, err := g.Nearest(latitude, longitude)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s, %s (%s km)", p.Name, p.Country, humanize.Comma(int64(math.Round(dist)))), nil
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180

	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}
