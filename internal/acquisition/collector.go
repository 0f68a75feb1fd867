package acquisition

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/orbital-survey/internal/geocode"
	"github.com/roman-kulish/orbital-survey/internal/model"
	"github.com/roman-kulish/orbital-survey/internal/orbit"
	"github.com/roman-kulish/orbital-survey/internal/telemetry"
)

// WithLocator sets the place lookup used to label samples.
// Without one the place label is left empty.
func WithLocator(locator geocode.Locator) func(*Collector) {
	return func(c *Collector) {
		c.locator = locator
	}
}

// WithCollectorClock sets the time source used to stamp samples
func WithCollectorClock(clock Clock) func(*Collector) {
	return func(c *Collector) {
		c.clock = clock
	}
}

// Collector assembles a sample from the sensors and the position source
type Collector struct {
	telemetry telemetry.Provider
	orbit     orbit.Provider
	locator   geocode.Locator
	clock     Clock
}

// NewCollector creates a Collector reading from the given sources
func NewCollector(sensors telemetry.Provider, position orbit.Provider, options ...func(*Collector)) *Collector {
	c := Collector{
		telemetry: sensors,
		orbit:     position,
		clock:     SystemClock{},
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Collect reads the sensors and the position concurrently and returns the
// sample stamped with the current time and sequence
func (c *Collector) Collect(ctx context.Context, sequence uint64) (*model.Sample, error) {
	now := c.clock.Now()

	var reading *telemetry.Telemetry
	var position model.Position

	g, gctx := errgroup.WithContext(ctx)
	g.Go(recovered(func() (err error) {
		if reading, err = c.telemetry.Read(gctx); err != nil {
			return fmt.Errorf("reading sensors: %w", err)
		}
		return nil
	}))
	g.Go(recovered(func() (err error) {
		if position, err = c.orbit.Position(gctx, now); err != nil {
			return fmt.Errorf("reading position: %w", err)
		}
		return nil
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var place string
	if c.locator != nil {
		var err error
		if place, err = c.locator.Locate(position.Latitude, position.Longitude); err != nil {
			return nil, fmt.Errorf("locating position: %w", err)
		}
	}

	return &model.Sample{
		Timestamp:   now,
		Sequence:    sequence,
		Humidity:    round(reading.Humidity, 4),
		Temperature: round(reading.Temperature, 4),
		Pressure:    round(reading.Pressure, 4),
		Pitch:       round(reading.Pitch, 3),
		Roll:        round(reading.Roll, 3),
		Yaw:         round(reading.Yaw, 3),
		Compass:     reading.Compass,
		Position:    position,
		Place:       place,
	}, nil
}

// recovered turns a panic in fn into an InternalFault. The scheduler can only
// recover panics raised on its own goroutine.
func recovered(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &Fault{Kind: InternalFault, Op: "collecting sample", Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		return fn()
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
