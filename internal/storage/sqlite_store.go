package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/orbital-survey/internal/model"
)

// WithSessionConfig stores config, JSON encoded unless it is already a
// string or a byte slice, along with the session row
func WithSessionConfig(config any) func(*SqliteStore) {
	return func(s *SqliteStore) {
		s.config = config
	}
}

// SqliteStore mirrors samples into a Sqlite database, one session per file
type SqliteStore struct {
	dbPath    string
	sessionID string
	config    any

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	mu          sync.Mutex
	initialized bool

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store for the session sessionID in the database at dbPath
func NewSqliteStore(dbPath, sessionID string, options ...func(*SqliteStore)) *SqliteStore {
	s := SqliteStore{
		dbPath:    dbPath,
		sessionID: sessionID,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// Initialize discards any previous database at the store path, creates the
// schema and records the session
func (s *SqliteStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing previous database: %w", err)
		}
	}

	if err := s.createSession(ctx); err != nil {
		return err
	}

	s.initialized = true
	return nil
}

func (s *SqliteStore) createSession(ctx context.Context) (err error) {
	var configData sql.NullString

	if s.config != nil {
		switch config := s.config.(type) {
		case string:
			configData.Valid = true
			configData.String = config

		case []byte:
			configData.Valid = true
			configData.String = string(config)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if _, err = stmt.ExecContext(ctx, s.sessionID, configData); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Append inserts the sample in its own transaction
func (s *SqliteStore) Append(ctx context.Context, sample *model.Sample) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	data := toSampleData(s.sessionID, sample)

	if _, err = tx.ExecContext(
		ctx,
		insertSampleSQL,
		data.SessionID,
		data.Sequence,
		data.Timestamp,
		data.Temperature,
		data.Humidity,
		data.Pressure,
		data.Pitch,
		data.Roll,
		data.Yaw,
		data.Compass,
		data.Latitude,
		data.Longitude,
		data.Altitude,
		data.Place,
	); err != nil {
		return fmt.Errorf("inserting sample %d: %w", sample.Sequence, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Session returns the stored session row
func (s *SqliteStore) Session(ctx context.Context) (session *SessionData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var sess SessionData
	if err = db.QueryRowContext(ctx, selectSessionSQL, s.sessionID).Scan(&sess.ID, &sess.StartTime, &sess.Config); err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	return &sess, nil
}

// Samples returns the samples of the session ordered by sequence
func (s *SqliteStore) Samples(ctx context.Context) (samples []*model.Sample, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectSamplesSQL, s.sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var d sampleData
		if err = rows.Scan(
			&d.ID,
			&d.SessionID,
			&d.Sequence,
			&d.Timestamp,
			&d.Temperature,
			&d.Humidity,
			&d.Pressure,
			&d.Pitch,
			&d.Roll,
			&d.Yaw,
			&d.Compass,
			&d.Latitude,
			&d.Longitude,
			&d.Altitude,
			&d.Place,
		); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		samples = append(samples, d.toSample())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples: %w", err)
	}
	return samples, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
