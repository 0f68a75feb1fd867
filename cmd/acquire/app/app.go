package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roman-kulish/orbital-survey/internal/acquisition"
	"github.com/roman-kulish/orbital-survey/internal/camera"
	"github.com/roman-kulish/orbital-survey/internal/geocode"
	"github.com/roman-kulish/orbital-survey/internal/observability"
	"github.com/roman-kulish/orbital-survey/internal/orbit"
	"github.com/roman-kulish/orbital-survey/internal/storage"
	"github.com/roman-kulish/orbital-survey/internal/telemetry"
)

// Run wires the acquisition pipeline from config and runs it to completion.
// An error is returned only when the pipeline cannot be set up.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	return run(ctx, config, logger, acquisition.SystemClock{})
}

func run(ctx context.Context, config *Config, logger *slog.Logger, clock acquisition.Clock) error {
	sessionID := uuid.NewString()
	logger = logger.With(slog.String("session", sessionID))

	sensors, closeSensors, err := createSensors(&config.Sensor, clock)
	if err != nil {
		return fmt.Errorf("failed to create sensors: %w", err)
	}
	defer closeSensors()

	propagator, err := orbit.NewSGP4(config.Orbit.Name, config.Orbit.Line1, config.Orbit.Line2)
	if err != nil {
		return fmt.Errorf("failed to create orbit propagator: %w", err)
	}

	gazetteer, err := geocode.NewGazetteer()
	if err != nil {
		return fmt.Errorf("failed to load gazetteer: %w", err)
	}

	cam, err := createCamera(&config.Camera, propagator.Name(), logger)
	if err != nil {
		return fmt.Errorf("failed to create camera: %w", err)
	}

	var metricsOptions []func(*observability.Metrics)
	if config.Storage.MetricsFile != "" {
		metricsOptions = append(metricsOptions, observability.WithTextfile(config.Storage.MetricsFile))
	}
	metrics, err := observability.NewMetrics(prometheus.NewRegistry(), metricsOptions...)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	store := createStorage(&config.Storage, sessionID, config, metrics, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn(fmt.Sprintf("closing storage: %s", err.Error()))
		}
	}()

	collector := acquisition.NewCollector(sensors, propagator,
		acquisition.WithLocator(gazetteer),
		acquisition.WithCollectorClock(clock))
	scheduler := acquisition.NewScheduler(
		collector,
		acquisition.NewCaptureCoordinator(cam),
		store,
		config.Storage.ImageDir,
		acquisition.WithDuration(time.Duration(config.Acquisition.Duration)),
		acquisition.WithInterval(time.Duration(config.Acquisition.Interval)),
		acquisition.WithSessionID(sessionID),
		acquisition.WithClock(clock),
		acquisition.WithMetrics(metrics),
		acquisition.WithLogger(logger),
	)

	if _, err = scheduler.Run(ctx); err != nil {
		return fmt.Errorf("failed to start acquisition: %w", err)
	}

	return nil
}

func createSensors(config *SensorConfig, clock acquisition.Clock) (telemetry.Provider, func(), error) {
	switch config.Type {
	case SensorSimulated:
		sensors := telemetry.NewSimulated(config.Seed,
			telemetry.WithFaultRate(config.FaultRate),
			telemetry.WithNow(clock.Now))
		return sensors, func() {}, nil

	case SensorSerial:
		port, err := telemetry.OpenSerial(config.SerialPort, telemetry.PortOptions{
			BaudRate:    config.BaudRate,
			ReadTimeout: time.Duration(config.ReadTimeout),
		})
		if err != nil {
			return nil, nil, err
		}
		return port, func() { _ = port.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown sensor type '%s'", config.Type)
	}
}

func createCamera(config *CameraConfig, label string, logger *slog.Logger) (camera.Camera, error) {
	resolution := camera.Resolution{Width: config.Width, Height: config.Height}

	switch config.Type {
	case CameraSynthetic:
		return camera.NewSynthetic(resolution,
			camera.WithQuality(config.Quality),
			camera.WithLabel(label),
			camera.WithSyntheticLogger(logger))

	case CameraCommand:
		args := slices.Clone(camera.DefaultCommand)
		if config.Command != "" {
			args[0] = config.Command
		}
		if len(config.Args) > 0 {
			args = append(args[:1], config.Args...)
		}
		return camera.NewCommand(args, resolution, camera.WithCommandLogger(logger))

	default:
		return nil, fmt.Errorf("unknown camera type '%s'", config.Type)
	}
}

func createStorage(config *StorageConfig, sessionID string, snapshot *Config, metrics *observability.Metrics, logger *slog.Logger) storage.Recorder {
	csvStore := storage.NewCSVStore(config.DataFile)
	if config.SqliteFile == "" {
		return csvStore
	}

	mirror := storage.NewSqliteStore(config.SqliteFile, sessionID, storage.WithSessionConfig(snapshot))

	return storage.NewTee(csvStore, mirror,
		storage.WithTeeLogger(logger),
		storage.WithMirrorErrorHandler(func(error) { metrics.ObserveMirrorError() }))
}
