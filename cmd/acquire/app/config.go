package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/orbital-survey/internal/acquisition"
	"github.com/roman-kulish/orbital-survey/internal/camera"
	"github.com/roman-kulish/orbital-survey/internal/orbit"
)

const (
	SensorSimulated SensorType = "simulated"
	SensorSerial    SensorType = "serial"

	CameraSynthetic CameraType = "synthetic"
	CameraCommand   CameraType = "command"
)

type SensorType string

type CameraType string

// Duration is a time.Duration written as "15s", "178m" or "2h" in configuration files
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalJSON(bytes []byte) error {
	var v string
	if err := json.Unmarshal(bytes, &v); err != nil {
		return err
	}

	duration, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("app.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d Duration) Validate() error {
	duration := time.Duration(d)

	if duration < 0 {
		return fmt.Errorf("app.Duration: must not be negative: %s", duration)
	}
	if duration > 0 && duration < time.Second {
		return fmt.Errorf("app.Duration: must be at least 1 second: %s given", duration)
	}

	return nil
}

func (d Duration) String() string {
	duration := time.Duration(d)
	switch {
	case duration%time.Hour == 0:
		return fmt.Sprintf("%dh", int(duration/time.Hour))
	case duration%time.Minute == 0:
		return fmt.Sprintf("%dm", int(duration/time.Minute))
	case duration%time.Second == 0:
		return fmt.Sprintf("%ds", int(duration/time.Second))
	default:
		return duration.String()
	}
}

// Config represents the main application configuration
type Config struct {
	Settings    Settings          `yaml:"settings" json:"settings"`
	Acquisition AcquisitionConfig `yaml:"acquisition" json:"acquisition"`
	Sensor      SensorConfig      `yaml:"sensor" json:"sensor"`
	Orbit       OrbitConfig       `yaml:"orbit" json:"orbit"`
	Camera      CameraConfig      `yaml:"camera" json:"camera"`
	Storage     StorageConfig     `yaml:"storage" json:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel" json:"logLevel"`
	LogFile  string `yaml:"logFile" json:"logFile"` // Diagnostics file, written next to stdout
}

// Level parses LogLevel
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// AcquisitionConfig represents the acquisition window and cadence
type AcquisitionConfig struct {
	Duration Duration `yaml:"duration" json:"duration"`
	Interval Duration `yaml:"interval" json:"interval"`
}

// SensorConfig represents the environment and orientation sensor source
type SensorConfig struct {
	Type        SensorType `yaml:"type" json:"type"`
	Seed        uint64     `yaml:"seed" json:"seed"`             // Simulated readings seed
	FaultRate   float64    `yaml:"faultRate" json:"faultRate"`   // Fraction of simulated reads that fail
	SerialPort  string     `yaml:"serialPort" json:"serialPort"` // Sensor board device, e.g. /dev/ttyACM0
	BaudRate    int        `yaml:"baudRate" json:"baudRate"`
	ReadTimeout Duration   `yaml:"readTimeout" json:"readTimeout"`
}

// OrbitConfig represents the tracked spacecraft
type OrbitConfig struct {
	Name  string `yaml:"name" json:"name"`
	Line1 string `yaml:"tle1" json:"tle1"`
	Line2 string `yaml:"tle2" json:"tle2"`
}

// CameraConfig represents the imaging device
type CameraConfig struct {
	Type    CameraType `yaml:"type" json:"type"`
	Width   int        `yaml:"width" json:"width"`
	Height  int        `yaml:"height" json:"height"`
	Quality int        `yaml:"quality" json:"quality"` // Synthetic frames only
	Command string     `yaml:"command" json:"command"` // Capture program, libcamera-still by default
	Args    []string   `yaml:"args" json:"args"`       // Arguments with {output}, {width} and {height} placeholders; libcamera-still arguments when empty
}

// StorageConfig represents the output locations
type StorageConfig struct {
	DataFile    string `yaml:"dataFile" json:"dataFile"`
	ImageDir    string `yaml:"imageDir" json:"imageDir"`
	SqliteFile  string `yaml:"sqliteFile" json:"sqliteFile"`   // Optional mirror of the data file
	MetricsFile string `yaml:"metricsFile" json:"metricsFile"` // Optional Prometheus textfile
}

// NewConfig returns the configuration used when no file is given
func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: "info",
			LogFile:  "events.log",
		},
		Acquisition: AcquisitionConfig{
			Duration: Duration(acquisition.DefaultDuration),
			Interval: Duration(acquisition.DefaultInterval),
		},
		Sensor: SensorConfig{
			Type: SensorSimulated,
			Seed: 1,
		},
		Orbit: OrbitConfig{
			Name:  orbit.DefaultName,
			Line1: orbit.DefaultLine1,
			Line2: orbit.DefaultLine2,
		},
		Camera: CameraConfig{
			Type:    CameraSynthetic,
			Width:   camera.DefaultWidth,
			Height:  camera.DefaultHeight,
			Quality: camera.DefaultQuality,
		},
		Storage: StorageConfig{
			DataFile: "data/data.csv",
			ImageDir: "images",
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML data over the defaults and validates the result
func ParseConfig(data []byte) (*Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Settings.Level(); err != nil {
		errs = append(errs, err)
	}

	if time.Duration(c.Acquisition.Duration) <= 0 {
		errs = append(errs, errors.New("acquisition duration must be positive"))
	}
	if err := c.Acquisition.Duration.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("acquisition duration: %w", err))
	}
	if err := c.Acquisition.Interval.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("acquisition interval: %w", err))
	}

	switch c.Sensor.Type {
	case SensorSimulated:
		if c.Sensor.FaultRate < 0 || c.Sensor.FaultRate > 1 {
			errs = append(errs, fmt.Errorf("sensor fault rate %v is out of range 0-1", c.Sensor.FaultRate))
		}
	case SensorSerial:
		if strings.TrimSpace(c.Sensor.SerialPort) == "" {
			errs = append(errs, errors.New("serial sensor requires serialPort"))
		}
		if err := c.Sensor.ReadTimeout.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("sensor read timeout: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sensor type '%s'", c.Sensor.Type))
	}

	if c.Orbit.Line1 == "" || c.Orbit.Line2 == "" {
		errs = append(errs, errors.New("orbit requires both TLE lines"))
	}

	switch c.Camera.Type {
	case CameraSynthetic, CameraCommand:
	default:
		errs = append(errs, fmt.Errorf("unknown camera type '%s'", c.Camera.Type))
	}
	if err := (camera.Resolution{Width: c.Camera.Width, Height: c.Camera.Height}).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("camera: %w", err))
	}
	if c.Camera.Quality < 1 || c.Camera.Quality > 100 {
		errs = append(errs, fmt.Errorf("camera quality %d is out of range 1-100", c.Camera.Quality))
	}

	if c.Storage.DataFile == "" {
		errs = append(errs, errors.New("storage dataFile is required"))
	}
	if c.Storage.ImageDir == "" {
		errs = append(errs, errors.New("storage imageDir is required"))
	}

	return errors.Join(errs...)
}
