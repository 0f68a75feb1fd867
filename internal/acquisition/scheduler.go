package acquisition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/roman-kulish/orbital-survey/internal/storage"
)

const (
	DefaultDuration       = 178 * time.Minute
	DefaultInterval       = 15 * time.Second
	DefaultImageExtension = "jpg"
)

// ErrAlreadyStarted is returned when Run is called more than once
var ErrAlreadyStarted = errors.New("acquisition already started")

// State is the lifecycle state of a Scheduler
type State int32

const (
	Idle State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Metrics receives the outcome of every iteration
type Metrics interface {
	ObserveIteration(sequence uint64, elapsed time.Duration)
	ObserveFault(kind string, elapsed time.Duration)
	Flush() error
}

type noopMetrics struct{}

func (noopMetrics) ObserveIteration(uint64, time.Duration) {}
func (noopMetrics) ObserveFault(string, time.Duration)     {}
func (noopMetrics) Flush() error                           { return nil }

// Summary describes a finished run
type Summary struct {
	SessionID    string
	Start        time.Time
	Deadline     time.Time
	Iterations   int    // Iterations which recorded a sample
	Faults       int    // Iterations abandoned because of a fault
	LastSequence uint64 // Sequence of the last recorded sample, 0 if none
	Elapsed      time.Duration
	Interrupted  bool // The run was cancelled before the deadline
}

// WithDuration sets the length of the acquisition window
func WithDuration(d time.Duration) func(*Scheduler) {
	return func(s *Scheduler) {
		s.duration = d
	}
}

// WithInterval sets the pause after every iteration
func WithInterval(d time.Duration) func(*Scheduler) {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithClock sets the time source
func WithClock(clock Clock) func(*Scheduler) {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) func(*Scheduler) {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(metrics Metrics) func(*Scheduler) {
	return func(s *Scheduler) {
		s.metrics = metrics
	}
}

// WithSessionID sets the session identifier, a random UUID by default
func WithSessionID(id string) func(*Scheduler) {
	return func(s *Scheduler) {
		s.sessionID = id
	}
}

// WithImageExtension sets the extension of the image files
func WithImageExtension(ext string) func(*Scheduler) {
	return func(s *Scheduler) {
		s.imageExt = ext
	}
}

// Scheduler runs acquisition iterations at a fixed cadence until the
// deadline. A failing iteration is logged and skipped, it never ends the run.
type Scheduler struct {
	collector *Collector
	capture   *CaptureCoordinator
	store     storage.Recorder

	imageDir  string
	imageExt  string
	sessionID string
	duration  time.Duration
	interval  time.Duration

	clock   Clock
	metrics Metrics
	logger  *slog.Logger

	state   atomic.Int32
	session *Session
}

// NewScheduler creates a Scheduler writing images into imageDir and samples into store
func NewScheduler(collector *Collector, capture *CaptureCoordinator, store storage.Recorder, imageDir string, options ...func(*Scheduler)) *Scheduler {
	s := Scheduler{
		collector: collector,
		capture:   capture,
		store:     store,
		imageDir:  imageDir,
		imageExt:  DefaultImageExtension,
		sessionID: uuid.NewString(),
		duration:  DefaultDuration,
		interval:  DefaultInterval,
		clock:     SystemClock{},
		metrics:   noopMetrics{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// State returns the current lifecycle state
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run initializes the record store and iterates until the deadline passes or
// ctx is cancelled. Cancellation is only observed while sleeping between
// iterations. The returned error is non-nil only when setup fails.
func (s *Scheduler) Run(ctx context.Context) (*Summary, error) {
	if !s.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return nil, ErrAlreadyStarted
	}
	defer s.state.Store(int32(Completed))

	if s.duration <= 0 {
		return nil, fmt.Errorf("invalid acquisition duration %s", s.duration)
	}
	if s.interval < 0 {
		return nil, fmt.Errorf("invalid acquisition interval %s", s.interval)
	}

	if err := s.store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing record store: %w", err)
	}
	if err := os.MkdirAll(s.imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}

	session := newSession(s.sessionID, s.clock.Now(), s.duration, s.imageDir, s.imageExt)
	s.session = session

	s.logger.Info("acquisition started",
		slog.String("session", session.ID),
		slog.Time("deadline", session.Deadline),
		slog.Duration("interval", s.interval))

	summary := Summary{
		SessionID: session.ID,
		Start:     session.Start,
		Deadline:  session.Deadline,
	}

	for now := s.clock.Now(); !session.Expired(now); now = s.clock.Now() {
		sequence := session.Next()

		err := s.iterate(ctx, session, sequence)
		elapsed := s.clock.Now().Sub(now)

		if err != nil {
			var fault *Fault
			if !errors.As(err, &fault) {
				fault = classify(InternalFault, "iteration", err)
			}

			s.logger.Error(fault.Error())
			s.metrics.ObserveFault(fault.Kind.String(), elapsed)
			summary.Faults++
		} else {
			s.logger.Info(fmt.Sprintf("iteration %d", sequence))
			s.metrics.ObserveIteration(sequence, elapsed)
			summary.Iterations++
			summary.LastSequence = sequence
			session.advance()
		}

		if err = s.metrics.Flush(); err != nil {
			s.logger.Warn(err.Error())
		}

		if err = s.clock.Sleep(ctx, s.interval); err != nil {
			summary.Interrupted = true
			break
		}
	}

	summary.Elapsed = s.clock.Now().Sub(session.Start)

	s.logger.Info("acquisition completed",
		slog.String("session", session.ID),
		slog.String("images", humanize.Comma(int64(summary.Iterations))),
		slog.Int("faults", summary.Faults),
		slog.String("elapsed", summary.Elapsed.Round(time.Second).String()),
		slog.Bool("interrupted", summary.Interrupted))

	return &summary, nil
}

// iterate runs the collect, capture and append steps. Any error or panic
// is returned as a *Fault.
func (s *Scheduler) iterate(ctx context.Context, session *Session, sequence uint64) (err error) {
	var captured string
	defer func() {
		if r := recover(); r != nil {
			s.discardImage(captured)
			err = &Fault{Kind: InternalFault, Op: "iteration", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	sample, err := s.collector.Collect(ctx, sequence)
	if err != nil {
		return classify(CollaboratorFault, "collecting sample", err)
	}

	path := session.ImagePath(sequence)
	if err = s.capture.Capture(ctx, sample.Position, sequence, path); err != nil {
		return classify(CollaboratorFault, "capturing image", err)
	}
	captured = path

	if err = s.store.Append(ctx, sample); err != nil {
		s.discardImage(path)
		return classify(PersistenceFault, "appending sample", err)
	}

	return nil
}

// discardImage removes an image whose sample was never recorded
func (s *Scheduler) discardImage(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn(fmt.Sprintf("removing orphaned image: %s", err.Error()), slog.String("path", path))
	}
}
