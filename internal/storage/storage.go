package storage

import (
	"context"
	"errors"

	"github.com/roman-kulish/orbital-survey/internal/model"
)

// TimestampLayout is the layout of the timestamp column
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Columns lists the record columns in the order they are written
var Columns = []string{
	"timestamp",
	"sequence",
	"temperature",
	"humidity",
	"pressure",
	"pitch",
	"roll",
	"yaw",
	"compass",
	"latitude",
	"longitude",
	"place",
}

// ErrNotInitialized is returned by Append before Initialize succeeded
var ErrNotInitialized = errors.New("store is not initialized")

// Recorder persists acquisition samples
type Recorder interface {
	// Initialize prepares a fresh store. Any previous content is discarded.
	Initialize(ctx context.Context) error

	// Append durably records one sample. When it returns, the sample is
	// either fully persisted or not at all.
	Append(ctx context.Context, sample *model.Sample) error

	Close() error
}
