package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/orbital-survey/internal/model"
)

// WithTeeLogger sets the logger used to report mirror failures
func WithTeeLogger(logger *slog.Logger) func(*Tee) {
	return func(t *Tee) {
		t.logger = logger
	}
}

// WithMirrorErrorHandler registers fn to be called for every failed mirror append
func WithMirrorErrorHandler(fn func(error)) func(*Tee) {
	return func(t *Tee) {
		t.onMirrorError = fn
	}
}

// Tee records samples into a primary store and copies them into a mirror.
// Only the primary store is authoritative: a failing mirror append is
// reported and otherwise ignored.
type Tee struct {
	primary Recorder
	mirror  Recorder

	onMirrorError func(error)
	logger        *slog.Logger
}

// NewTee creates a Tee over primary and mirror
func NewTee(primary, mirror Recorder, options ...func(*Tee)) *Tee {
	t := Tee{
		primary:       primary,
		mirror:        mirror,
		onMirrorError: func(error) {},
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&t)
	}

	return &t
}

// Initialize initializes both stores. Either failing is an error, so a
// misconfigured mirror is caught before acquisition starts.
func (t *Tee) Initialize(ctx context.Context) error {
	if err := t.primary.Initialize(ctx); err != nil {
		return err
	}
	if err := t.mirror.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing mirror: %w", err)
	}
	return nil
}

func (t *Tee) Append(ctx context.Context, sample *model.Sample) error {
	if err := t.primary.Append(ctx, sample); err != nil {
		return err
	}

	if err := t.mirror.Append(ctx, sample); err != nil {
		t.logger.Warn(fmt.Sprintf("mirror append failed: %s", err.Error()), slog.Uint64("sequence", sample.Sequence))
		t.onMirrorError(err)
	}

	return nil
}

func (t *Tee) Close() error {
	return errors.Join(t.primary.Close(), t.mirror.Close())
}
