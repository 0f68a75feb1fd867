package orbit

import (
	"context"
	"time"

	"github.com/roman-kulish/orbital-survey/internal/model"
)

// Provider returns the position of the tracked spacecraft at a point in time
type Provider interface {
	Position(ctx context.Context, at time.Time) (model.Position, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, at time.Time) (model.Position, error)

func (f ProviderFunc) Position(ctx context.Context, at time.Time) (model.Position, error) {
	return f(ctx, at)
}
