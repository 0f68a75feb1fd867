package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/roman-kulish/orbital-survey/internal/model"
)

// CSVStore appends samples to a CSV file. The file is reopened for every
// append and synced before the append returns, so a crash loses at most
// the sample being written.
type CSVStore struct {
	path string

	mu          sync.Mutex
	initialized bool
}

// NewCSVStore creates a store writing to path
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the data file path
func (s *CSVStore) Path() string {
	return s.path
}

// Initialize creates the data file, truncating an existing one, and writes
// the header row
func (s *CSVStore) Initialize(ctx context.Context) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("creating data file: %w", err)
	}
	defer closeWithError(f, &err)

	if err = writeRecord(f, Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	s.initialized = true
	return nil
}

// Append writes one row in Columns order. A row that cannot be written and
// synced in full is cut back off the file.
func (s *CSVStore) Append(ctx context.Context, sample *model.Sample) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening data file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("opening data file: %w", err)
	}
	offset := info.Size()

	err = writeRecord(f, toRecord(sample))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		if truncErr := os.Truncate(s.path, offset); truncErr != nil {
			err = errors.Join(err, fmt.Errorf("discarding partial row: %w", truncErr))
		}
		return fmt.Errorf("appending sample %d: %w", sample.Sequence, err)
	}

	return nil
}

func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = false
	return nil
}

func writeRecord(f *os.File, record []string) error {
	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return f.Sync()
}
