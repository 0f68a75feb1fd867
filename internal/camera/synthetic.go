package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/roman-kulish/orbital-survey/internal/geotag"
)

const (
	dpi      = 72.0
	spacing  = 1.3
	margin   = 12
	minSize  = 10.0
	sizeRate = 0.022 // font size relative to frame height
)

// WithSyntheticLogger sets the logger for the synthetic camera
func WithSyntheticLogger(logger *slog.Logger) func(*Synthetic) {
	return func(s *Synthetic) {
		s.logger = logger.With(slog.String("camera", "synthetic"))
	}
}

// WithQuality sets the JPEG quality
func WithQuality(quality int) func(*Synthetic) {
	return func(s *Synthetic) {
		s.quality = quality
	}
}

// WithLabel sets the spacecraft name printed on each frame
func WithLabel(label string) func(*Synthetic) {
	return func(s *Synthetic) {
		s.label = label
	}
}

// Synthetic renders a placeholder frame annotated with the capture details.
// It stands in for camera hardware on development machines and in dry runs.
type Synthetic struct {
	resolution Resolution
	quality    int
	label      string

	font     *truetype.Font
	fontSize float64

	logger *slog.Logger
}

// NewSynthetic creates a synthetic camera producing frames of the given resolution
func NewSynthetic(resolution Resolution, options ...func(*Synthetic)) (*Synthetic, error) {
	if err := resolution.Validate(); err != nil {
		return nil, err
	}

	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	s := Synthetic{
		resolution: resolution,
		quality:    DefaultQuality,
		font:       parsedFont,
		fontSize:   math.Max(minSize, float64(resolution.Height)*sizeRate),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	if s.quality < 1 || s.quality > 100 {
		return nil, fmt.Errorf("invalid JPEG quality %d", s.quality)
	}

	return &s, nil
}

func (s *Synthetic) Capture(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := s.render(req)
	if err != nil {
		return fmt.Errorf("rendering frame: %w", err)
	}

	var buf bytes.Buffer
	if err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	data, err := geotag.Embed(buf.Bytes(), req.GPS)
	if err != nil {
		return fmt.Errorf("embedding geotag: %w", err)
	}

	if err = writeFileAtomic(req.Path, data); err != nil {
		return err
	}

	s.logger.Debug("frame written",
		slog.String("path", req.Path),
		slog.String("size", humanize.Bytes(uint64(len(data)))))

	return nil
}

func (s *Synthetic) render(req Request) (*image.RGBA, error) {
	bounds := image.Rect(0, 0, s.resolution.Width, s.resolution.Height)
	img := image.NewRGBA(bounds)

	lat, lon := req.Position.Latitude, req.Position.Longitude
	for y := 0; y < bounds.Dy(); y++ {
		c := groundColor(lat, lon, float64(y)/float64(bounds.Dy()))
		draw.Draw(img, image.Rect(0, y, bounds.Dx(), y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}

	return img, s.annotate(img, req)
}

func (s *Synthetic) annotate(img *image.RGBA, req Request) error {
	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(s.font)
	ctx.SetFontSize(s.fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.NewUniform(color.White))
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)

	lines := []string{
		fmt.Sprintf("%s  frame %03d", s.label, req.Sequence),
		req.Position.Timestamp.UTC().Format(time.DateTime + " MST"),
		fmt.Sprintf("%s %s", formatDMS(req.GPS.Latitude), req.GPS.LatitudeRef),
		fmt.Sprintf("%s %s", formatDMS(req.GPS.Longitude), req.GPS.LongitudeRef),
		fmt.Sprintf("alt %.1f km", req.Position.Altitude),
	}

	pt := freetype.Pt(margin, margin+int(ctx.PointToFixed(s.fontSize)>>6))
	for _, line := range lines {
		if _, err := ctx.DrawString(line, pt); err != nil {
			return fmt.Errorf("drawing %q: %w", line, err)
		}
		pt.Y += ctx.PointToFixed(s.fontSize * spacing)
	}

	return nil
}

func formatDMS(t geotag.Tag) string {
	return fmt.Sprintf("%d°%02d'%04.1f\"", t.Degrees, t.Minutes, t.Seconds())
}
