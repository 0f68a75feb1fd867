package storage

import (
	"database/sql"
	"errors"
	"strconv"

	"github.com/roman-kulish/orbital-survey/internal/model"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toRecord lays a sample out in Columns order
func toRecord(s *model.Sample) []string {
	return []string{
		s.Timestamp.Format(TimestampLayout),
		strconv.FormatUint(s.Sequence, 10),
		formatFloat(s.Temperature),
		formatFloat(s.Humidity),
		formatFloat(s.Pressure),
		formatFloat(s.Pitch),
		formatFloat(s.Roll),
		formatFloat(s.Yaw),
		formatFloat(s.Compass),
		formatFloat(s.Position.Latitude),
		formatFloat(s.Position.Longitude),
		s.Place,
	}
}

func toSampleData(sessionID string, s *model.Sample) *sampleData {
	return &sampleData{
		SessionID:   sessionID,
		Sequence:    int64(s.Sequence),
		Timestamp:   s.Timestamp.UTC(),
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		Pressure:    s.Pressure,
		Pitch:       s.Pitch,
		Roll:        s.Roll,
		Yaw:         s.Yaw,
		Compass:     s.Compass,
		Latitude:    s.Position.Latitude,
		Longitude:   s.Position.Longitude,
		Altitude:    s.Position.Altitude,
		Place: sql.NullString{
			String: s.Place,
			Valid:  s.Place != "",
		},
	}
}

func (d *sampleData) toSample() *model.Sample {
	return &model.Sample{
		Timestamp:   d.Timestamp,
		Sequence:    uint64(d.Sequence),
		Humidity:    d.Humidity,
		Temperature: d.Temperature,
		Pressure:    d.Pressure,
		Pitch:       d.Pitch,
		Roll:        d.Roll,
		Yaw:         d.Yaw,
		Compass:     d.Compass,
		Position: model.Position{
			Timestamp: d.Timestamp,
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
			Altitude:  d.Altitude,
		},
		Place: d.Place.String,
	}
}
