package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roman-kulish/orbital-survey/internal/geotag"
	"github.com/roman-kulish/orbital-survey/internal/model"
)

const (
	DefaultWidth   = 2592
	DefaultHeight  = 1944
	DefaultQuality = 90
)

// Request describes one image to capture
type Request struct {
	Path     string          // Destination file
	Sequence uint64          // Frame number, used for annotations only
	Position model.Position  // Position the frame is taken at
	GPS      geotag.Metadata // Positional metadata embedded into the file
}

// Camera captures a geotagged still image into Request.Path.
// Implementations must not leave a partial file behind on failure.
type Camera interface {
	Capture(ctx context.Context, req Request) error
}

// Resolution is the frame size in pixels
type Resolution struct {
	Width  int
	Height int
}

// Validate checks that both dimensions are positive
func (r Resolution) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", r.Width, r.Height)
	}
	return nil
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// writeFileAtomic writes data next to path and renames it into place,
// so readers never observe a half written image
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing image: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing image: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing image: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming image: %w", err)
	}

	return nil
}
