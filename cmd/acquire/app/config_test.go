package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfigIsValid(t *testing.T) {
	c := NewConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}

	if got := time.Duration(c.Acquisition.Duration); got != 178*time.Minute {
		t.Errorf("default duration = %s, want 178m", got)
	}
	if got := time.Duration(c.Acquisition.Interval); got != 15*time.Second {
		t.Errorf("default interval = %s, want 15s", got)
	}
	if c.Settings.LogFile != "events.log" {
		t.Errorf("default log file = %q, want events.log", c.Settings.LogFile)
	}
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
settings:
  logLevel: debug
acquisition:
  duration: 2h
  interval: 30s
sensor:
  type: serial
  serialPort: /dev/ttyACM0
  baudRate: 9600
  readTimeout: 3s
camera:
  type: command
  width: 1296
  height: 972
  command: rpicam-still
  args: ["-o", "{output}"]
storage:
  dataFile: out/data.csv
  sqliteFile: out/survey.sqlite
`)

	c, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	level, err := c.Settings.Level()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("log level = %v, %v; want debug", level, err)
	}
	if got := time.Duration(c.Acquisition.Duration); got != 2*time.Hour {
		t.Errorf("duration = %s, want 2h", got)
	}
	if got := time.Duration(c.Sensor.ReadTimeout); got != 3*time.Second {
		t.Errorf("read timeout = %s, want 3s", got)
	}
	if c.Sensor.Type != SensorSerial || c.Sensor.BaudRate != 9600 {
		t.Errorf("sensor = %+v", c.Sensor)
	}
	if c.Camera.Type != CameraCommand || c.Camera.Command != "rpicam-still" || len(c.Camera.Args) != 2 {
		t.Errorf("camera = %+v", c.Camera)
	}

	// unset keys keep their defaults
	if c.Camera.Quality != 90 {
		t.Errorf("camera quality = %d, want default 90", c.Camera.Quality)
	}
	if c.Storage.ImageDir != "images" {
		t.Errorf("image dir = %q, want default images", c.Storage.ImageDir)
	}
	if c.Orbit.Line1 == "" {
		t.Error("orbit TLE default was lost")
	}
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "settings: ["},
		{"bad duration", "acquisition: {duration: soon}"},
		{"zero duration", "acquisition: {duration: 0s}"},
		{"sub-second interval", "acquisition: {interval: 500ms}"},
		{"negative interval", "acquisition: {interval: -1s}"},
		{"log level", "settings: {logLevel: chatty}"},
		{"sensor type", "sensor: {type: thermometer}"},
		{"serial without port", "sensor: {type: serial}"},
		{"fault rate", "sensor: {faultRate: 2}"},
		{"camera type", "camera: {type: film}"},
		{"resolution", "camera: {width: 0}"},
		{"quality", "camera: {quality: 0}"},
		{"data file", "storage: {dataFile: ''}"},
		{"orbit", "orbit: {tle1: ''}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.data)); err == nil {
				t.Fatalf("ParseConfig(%q) succeeded, want error", tt.data)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("acquisition: {duration: 10m}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := time.Duration(c.Acquisition.Duration); got != 10*time.Minute {
		t.Errorf("duration = %s, want 10m", got)
	}

	if _, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig of a missing file succeeded")
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		d    Duration
		want string
	}{
		{Duration(178 * time.Minute), "178m"},
		{Duration(2 * time.Hour), "2h"},
		{Duration(15 * time.Second), "15s"},
		{Duration(1500 * time.Millisecond), "1.5s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
