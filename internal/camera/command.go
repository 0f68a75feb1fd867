package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/orbital-survey/internal/geotag"
)

// Placeholders substituted in command arguments
const (
	PlaceholderOutput = "{output}"
	PlaceholderWidth  = "{width}"
	PlaceholderHeight = "{height}"
)

// DefaultCommand captures a still with the Raspberry Pi camera stack
var DefaultCommand = []string{
	"libcamera-still",
	"--nopreview",
	"--immediate",
	"--encoding", "jpg",
	"--width", PlaceholderWidth,
	"--height", PlaceholderHeight,
	"--output", PlaceholderOutput,
}

var (
	// ErrCommandFailed is returned when the capture command exits with an error
	ErrCommandFailed = errors.New("capture command failed")

	// ErrCommandNotFound is returned when the capture program is not installed
	ErrCommandNotFound = errors.New("capture command not found")
)

// WithCommandLogger sets the logger for the command camera
func WithCommandLogger(logger *slog.Logger) func(*Command) {
	return func(c *Command) {
		c.logger = logger.With(slog.String("camera", c.program))
	}
}

// Command captures stills by running an external program, such as
// libcamera-still, and geotags the JPEG it produces
type Command struct {
	program    string
	args       []string
	resolution Resolution
	logger     *slog.Logger
}

// NewCommand creates a camera running args. The first element is the program.
func NewCommand(args []string, resolution Resolution, options ...func(*Command)) (*Command, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, errors.New("capture command is empty")
	}
	if err := resolution.Validate(); err != nil {
		return nil, err
	}

	var hasOutput bool
	for _, arg := range args[1:] {
		if strings.Contains(arg, PlaceholderOutput) {
			hasOutput = true
			break
		}
	}
	if !hasOutput {
		return nil, fmt.Errorf("capture command must reference %s", PlaceholderOutput)
	}

	binPath, err := exec.LookPath(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCommandNotFound, args[0], err)
	}

	c := Command{
		args:       append([]string{binPath}, args[1:]...),
		program:    args[0],
		resolution: resolution,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	return &c, nil
}

func (c *Command) Capture(ctx context.Context, req Request) error {
	raw, err := os.CreateTemp(filepath.Dir(req.Path), ".capture-*.jpg")
	if err != nil {
		return fmt.Errorf("creating capture file: %w", err)
	}
	rawPath := raw.Name()
	_ = raw.Close()
	defer func() { _ = os.Remove(rawPath) }()

	cmd := c.Cmd(ctx, rawPath)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	c.logStderr(&stderr)

	if runErr != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %w", ErrCommandFailed, c.program, runErr)
	}

	data, err := os.ReadFile(rawPath)
	if err != nil {
		return fmt.Errorf("reading capture: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: %s produced an empty file", ErrCommandFailed, c.program)
	}

	if data, err = geotag.Embed(data, req.GPS); err != nil {
		return fmt.Errorf("embedding geotag: %w", err)
	}

	if err = writeFileAtomic(req.Path, data); err != nil {
		return err
	}

	c.logger.Debug("frame written",
		slog.String("path", req.Path),
		slog.String("size", humanize.Bytes(uint64(len(data)))))

	return nil
}

// Cmd builds the capture command writing its output to path
func (c *Command) Cmd(ctx context.Context, path string) *exec.Cmd {
	replacer := strings.NewReplacer(
		PlaceholderOutput, path,
		PlaceholderWidth, strconv.Itoa(c.resolution.Width),
		PlaceholderHeight, strconv.Itoa(c.resolution.Height),
	)

	args := make([]string, len(c.args)-1)
	for i, arg := range c.args[1:] {
		args[i] = replacer.Replace(arg)
	}

	return exec.CommandContext(ctx, c.args[0], args...)
}

// logStderr forwards the program's diagnostics, which camera tools print
// even on success
func (c *Command) logStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		c.logger.Debug(fmt.Sprintf("%s >> %s", c.program, line))
	}
}
