package acquisition

import (
	"context"

	"github.com/roman-kulish/orbital-survey/internal/camera"
	"github.com/roman-kulish/orbital-survey/internal/geotag"
	"github.com/roman-kulish/orbital-survey/internal/model"
)

// CaptureCoordinator geotags and triggers one image capture
type CaptureCoordinator struct {
	camera camera.Camera
}

// NewCaptureCoordinator creates a coordinator for cam
func NewCaptureCoordinator(cam camera.Camera) *CaptureCoordinator {
	return &CaptureCoordinator{camera: cam}
}

// Capture writes the image at path tagged with the position. Camera errors
// are returned as is and the capture is not retried.
func (c *CaptureCoordinator) Capture(ctx context.Context, position model.Position, sequence uint64, path string) error {
	gps, err := geotag.NewMetadata(position.Latitude, position.Longitude)
	if err != nil {
		return err
	}

	return c.camera.Capture(ctx, camera.Request{
		Path:     path,
		Sequence: sequence,
		Position: position,
		GPS:      gps,
	})
}
