package storage

import (
	"database/sql"
	"time"
)

// SessionData is a stored session row
type SessionData struct {
	ID        string
	StartTime time.Time
	Config    sql.NullString
}

type sampleData struct {
	ID          int64
	SessionID   string
	Sequence    int64
	Timestamp   time.Time
	Temperature float64
	Humidity    float64
	Pressure    float64
	Pitch       float64
	Roll        float64
	Yaw         float64
	Compass     float64
	Latitude    float64
	Longitude   float64
	Altitude    float64
	Place       sql.NullString
}
