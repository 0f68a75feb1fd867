package acquisition

import (
	"context"
	"time"
)

// Clock is the time source of the scheduler
type Clock interface {
	Now() time.Time

	// Sleep pauses for d. It returns early with the context error when ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
