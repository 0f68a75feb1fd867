package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	defaultBaudRate    = 115200
	defaultReadTimeout = 2 * time.Second

	// readCommand asks the sensor board for one JSON encoded reading
	readCommand = "READ\n"
)

// ErrBrokenLink is returned when the serial link fails mid-exchange
var ErrBrokenLink = errors.New("broken sensor link")

// PortOptions describes the serial connection to the sensor board
type PortOptions struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      string
	ReadTimeout time.Duration
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = defaultBaudRate
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch strings.TrimSpace(strings.ToUpper(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}

	return opts, nil
}

// SerialMode converts the options into the go.bug.st/serial mode
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
	}

	switch opts.StopBits {
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}

	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}

	return mode, nil
}

// Serial reads telemetry from a microcontroller sensor board which answers
// each READ command with a single line of JSON
type Serial struct {
	mu     sync.Mutex
	port   io.ReadWriteCloser
	reader *bufio.Reader
	now    func() time.Time
}

// OpenSerial opens the serial port at path and returns a provider reading from it
func OpenSerial(path string, opts PortOptions) (*Serial, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", path, err)
	}

	if err = port.SetReadTimeout(opts.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("setting read timeout: %w", err)
	}

	return NewSerial(port), nil
}

// NewSerial wraps an already opened port
func NewSerial(port io.ReadWriteCloser) *Serial {
	return &Serial{
		port:   port,
		reader: bufio.NewReader(port),
		now:    time.Now,
	}
}

func (s *Serial) Read(ctx context.Context) (*Telemetry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.port, readCommand); err != nil {
		return nil, fmt.Errorf("%w: writing command: %w", ErrBrokenLink, err)
	}

	line, err := s.reader.ReadString('\n')
	if err != nil && (len(line) == 0 || !errors.Is(err, io.EOF)) {
		return nil, fmt.Errorf("%w: reading response: %w", ErrBrokenLink, err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrNoReading
	}

	var t Telemetry
	if err = json.Unmarshal([]byte(line), &t); err != nil {
		return nil, fmt.Errorf("decoding reading %q: %w", line, err)
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = s.now()
	}

	return &t, nil
}

// Close releases the serial port
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.port.Close()
}
