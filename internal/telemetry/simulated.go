package telemetry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// ErrSimulatedFault is returned by Simulated when a fault is injected
var ErrSimulatedFault = errors.New("simulated sensor fault")

// WithFaultRate makes the simulated sensor fail the given fraction of reads
func WithFaultRate(rate float64) func(*Simulated) {
	return func(s *Simulated) {
		s.faultRate = rate
	}
}

// WithNow sets the time source used to stamp readings
func WithNow(now func() time.Time) func(*Simulated) {
	return func(s *Simulated) {
		s.now = now
	}
}

// Simulated produces plausible cabin readings from a seeded generator,
// so runs without sensor hardware are repeatable
type Simulated struct {
	mu        sync.Mutex
	rng       *rand.Rand
	faultRate float64
	now       func() time.Time
	reads     int
}

// NewSimulated creates a simulated sensor board
func NewSimulated(seed uint64, options ...func(*Simulated)) *Simulated {
	s := Simulated{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func (s *Simulated) Read(ctx context.Context) (*Telemetry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if s.faultRate > 0 && s.rng.Float64() < s.faultRate {
		return nil, ErrSimulatedFault
	}

	// slow drift so consecutive readings look like a real cabin
	phase := float64(s.reads) / 40

	return &Telemetry{
		Timestamp:   s.now(),
		Humidity:    42 + 4*math.Sin(phase) + s.rng.NormFloat64()*0.3,
		Temperature: 26.5 + 1.5*math.Sin(phase/2) + s.rng.NormFloat64()*0.1,
		Pressure:    1012 + 2*math.Cos(phase) + s.rng.NormFloat64()*0.2,
		Pitch:       math.Mod(359+s.rng.NormFloat64()*0.5, 360),
		Roll:        math.Mod(1+s.rng.NormFloat64()*0.5, 360),
		Yaw:         math.Mod(180+20*math.Sin(phase/3), 360),
		Compass:     math.Mod(90+40*math.Sin(phase/5)+360, 360),
	}, nil
}
