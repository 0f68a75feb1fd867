package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (id,
                      start_time,
                      config)
VALUES (?, CURRENT_TIMESTAMP, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    config
FROM sessions
WHERE
    id = ?`

	insertSampleSQL = `
INSERT INTO samples (session_id,
                     sequence,
                     timestamp,
                     temperature,
                     humidity,
                     pressure,
                     pitch,
                     roll,
                     yaw,
                     compass,
                     latitude,
                     longitude,
                     altitude,
                     place)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectSamplesSQL = `
SELECT
    id,
    session_id,
    sequence,
    timestamp,
    temperature,
    humidity,
    pressure,
    pitch,
    roll,
    yaw,
    compass,
    latitude,
    longitude,
    altitude,
    place
FROM samples
WHERE
    session_id = ?
ORDER BY sequence`

	initIndexesSQL = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_samples_session_sequence ON samples (session_id, sequence);`
)

//go:embed schema.sql
var initSchemaSQL string
