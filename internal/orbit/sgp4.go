package orbit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/roman-kulish/orbital-survey/internal/model"
)

const tleLineLength = 69

// Two-line element set of the ISS, used when no TLE is configured.
// Stale elements still yield a plausible ground track.
const (
	DefaultName  = "ISS (ZARYA)"
	DefaultLine1 = "1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994"
	DefaultLine2 = "2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533"
)

var (
	// ErrInvalidTLE is returned when a two-line element set fails validation
	ErrInvalidTLE = errors.New("invalid two-line element set")

	// ErrPropagation is returned when SGP4 cannot produce a position
	ErrPropagation = errors.New("orbit propagation failed")
)

// SGP4 propagates a two-line element set to compute the sub-satellite point
type SGP4 struct {
	name string
	sat  satellite.Satellite
}

// NewSGP4 validates the element set and builds a propagator.
// go-satellite does not report malformed input, so the lines are checked
// for length, line numbers and checksum first.
func NewSGP4(name, line1, line2 string) (*SGP4, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if err := validateTLELine(line1, '1'); err != nil {
		return nil, fmt.Errorf("%w: line 1: %w", ErrInvalidTLE, err)
	}
	if err := validateTLELine(line2, '2'); err != nil {
		return nil, fmt.Errorf("%w: line 2: %w", ErrInvalidTLE, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTLE, sat.ErrorStr)
	}

	return &SGP4{name: name, sat: sat}, nil
}

// Name returns the spacecraft name the propagator was configured with
func (p *SGP4) Name() string {
	return p.name
}

// Position computes latitude, longitude and altitude at the given time
func (p *SGP4) Position(ctx context.Context, at time.Time) (model.Position, error) {
	if err := ctx.Err(); err != nil {
		return model.Position{}, err
	}

	at = at.UTC()
	year, month, day := at.Date()
	hour, minute, sec := at.Clock()

	eci, _ := satellite.Propagate(p.sat, year, int(month), day, hour, minute, sec)
	if isZeroVector(eci) || math.IsNaN(eci.X) || math.IsNaN(eci.Y) || math.IsNaN(eci.Z) {
		return model.Position{}, fmt.Errorf("%w: %s at %s", ErrPropagation, p.name, at.Format(time.RFC3339))
	}

	gmst := satellite.GSTimeFromDate(year, int(month), day, hour, minute, sec)
	altitude, _, lla := satellite.ECIToLLA(eci, gmst)

	return model.Position{
		Timestamp: at,
		Latitude:  lla.Latitude * 180 / math.Pi,
		Longitude: normalizeLongitude(lla.Longitude * 180 / math.Pi),
		Altitude:  altitude,
	}, nil
}

// normalizeLongitude wraps degrees into [-180, 180)
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func isZeroVector(v satellite.Vector3) bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func validateTLELine(line string, number byte) error {
	if len(line) != tleLineLength {
		return fmt.Errorf("expected %d characters, got %d", tleLineLength, len(line))
	}
	if line[0] != number || line[1] != ' ' {
		return fmt.Errorf("expected line number %c", number)
	}

	want := int(line[tleLineLength-1] - '0')
	if want < 0 || want > 9 {
		return fmt.Errorf("invalid checksum digit %q", line[tleLineLength-1])
	}
	if got := tleChecksum(line[:tleLineLength-1]); got != want {
		return fmt.Errorf("checksum mismatch: computed %d, line says %d", got, want)
	}
	return nil
}

// tleChecksum sums the digits, counting each minus sign as 1, modulo 10
func tleChecksum(s string) int {
	var sum int
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}
